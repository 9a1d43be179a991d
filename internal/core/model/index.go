package model

import (
	"regexp"
	"strconv"
)

// Index is a physical index living on a server. Available mirrors the last known state
// of the engine and must be refreshed to be trusted.
type Index struct {
	Server    string
	Name      string
	Available bool
}

func (i Index) Key() string {
	return i.Server + "/" + i.Name
}

func (i Index) Same(other Index) bool {
	return i.Server == other.Server && i.Name == other.Name
}

func (i Index) String() string {
	return i.Key()
}

var versionSuffix = regexp.MustCompile(`-([0-9]+)$`)

// VersionedIndexName returns the name of the given version of a base index.
func VersionedIndexName(base string, version int) string {
	return base + "-" + strconv.Itoa(version)
}

// IndexVersion extracts the numeric version suffix of an index name.
// ok is false when the name carries no version.
func IndexVersion(name string) (version int, ok bool) {
	matches := versionSuffix.FindStringSubmatch(name)
	if matches == nil {
		return 0, false
	}

	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}

	return version, true
}

// IsVersionOf reports whether name is a versioned index of base.
func IsVersionOf(name string, base string) bool {
	if _, ok := IndexVersion(name); !ok {
		return false
	}

	return versionSuffix.ReplaceAllString(name, "") == base
}
