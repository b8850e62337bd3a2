package catalog

import "strings"

type LocationType string

const (
	LocationTape    LocationType = "tape"
	LocationScratch LocationType = "scratch"
	LocationDisk    LocationType = "disk"
)

// DefaultScratchMarker is the path fragment identifying scratch areas.
const DefaultScratchMarker = "/scratch/"

// Location is one physical copy of a file. Location is the catalog's location
// string (what AddFileLocation takes); FullPath is the resolved path and is
// what identifies a location across catalogs.
type Location struct {
	FileName string       `json:"file_name,omitempty"`
	Location string       `json:"location"`
	FullPath string       `json:"full_path"`
	Type     LocationType `json:"location_type,omitempty"`
}

// IsScratch reports whether the full path lies in a scratch area. The marker
// must follow a prefix (such as "dcache:"), as catalog full paths always carry one.
func (l Location) IsScratch(marker string) bool {
	if marker == "" {
		marker = DefaultScratchMarker
	}
	return strings.Index(l.FullPath, marker) > 0
}

// ClassifyLocation derives the location type from its location string and path.
func ClassifyLocation(location, fullPath, scratchMarker string) LocationType {
	if strings.HasPrefix(location, "enstore:") || strings.HasPrefix(fullPath, "enstore:") {
		return LocationTape
	}
	if (Location{FullPath: fullPath}).IsScratch(scratchMarker) {
		return LocationScratch
	}
	return LocationDisk
}
