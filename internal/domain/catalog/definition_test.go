package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

func TestReferencedDefinitions(t *testing.T) {
	tests := []struct {
		dims string
		want []string
	}{
		{"defname: D2 with limit 10", []string{"D2"}},
		{"file_type data", nil},
		{"(defname: a or defname:b) minus defname : c", []string{"a", "b", "c"}},
		{"defname: a and (DEFNAME: a)", []string{"a"}},
		{"isparentof:( defname:raw_run1 ) and data_tier reco", []string{"raw_run1"}},
		{"defname: 'quoted'", []string{"quoted"}},
	}

	for _, tt := range tests {
		t.Run(tt.dims, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferencedDefinitions(tt.dims))
		})
	}
}

func TestDisallowedTokens(t *testing.T) {
	assert.Empty(t, DisallowedTokens("defname: raw and run_number 5"))
	assert.Equal(t, []string{"snapshot_id"}, DisallowedTokens("snapshot_id 42"))
	assert.Equal(t,
		[]string{"dataset_def_name", "dataset_def_name_newest_snapshot"},
		DisallowedTokens("dataset_def_name_newest_snapshot raw"))
}

func TestDefinition_Validate(t *testing.T) {
	assert.NoError(t, (&Definition{Name: "d", Dimensions: "file_type data"}).Validate())

	err := (&Definition{Dimensions: "x"}).Validate()
	assert.True(t, errors.IsValidationError(err))

	err = (&Definition{Name: "d"}).Validate()
	assert.True(t, errors.IsValidationError(err))
}

func TestLocation_IsScratch(t *testing.T) {
	scratch := Location{FullPath: "dcache:/pnfs/sbnd/scratch/users/x"}
	persistent := Location{FullPath: "dcache:/pnfs/sbnd/persistent/x"}
	bare := Location{FullPath: "/scratch/x"}

	assert.True(t, scratch.IsScratch(""))
	assert.False(t, persistent.IsScratch(DefaultScratchMarker))
	assert.False(t, bare.IsScratch(DefaultScratchMarker), "marker at the start does not count")

	assert.Equal(t, LocationTape, ClassifyLocation("enstore:/pnfs/sbnd/raw(12@vol)", "enstore:/pnfs/sbnd/raw", ""))
	assert.Equal(t, LocationScratch, ClassifyLocation("dcache:/pnfs/sbnd/scratch/x", "dcache:/pnfs/sbnd/scratch/x", ""))
	assert.Equal(t, LocationDisk, ClassifyLocation("dcache:/pnfs/sbnd/persistent/x", "dcache:/pnfs/sbnd/persistent/x", ""))
}

func TestUser(t *testing.T) {
	assert.Error(t, (&User{}).Validate())
	assert.NoError(t, (&User{Username: "alice"}).Validate())
	assert.True(t, UserModification{}.Empty())
	assert.False(t, UserModification{AddGridSubject: "/DC=org/CN=alice"}.Empty())
}
