package config

const SourceFileExt = ".rgn"

// SnapshotFileExt is the extension of an expected-output snapshot that sits
// next to a source file.
const SnapshotFileExt = ".stderr"

// StaticLifetime is the only lifetime name that needs no declaration.
const StaticLifetime = "'static"

// RegionsAttr requests notes for a function when notes are limited to
// annotated functions.
const RegionsAttr = "regions"

// Note and error headlines.
const (
	ExternalRequirementsNote   = "External requirements"
	NoExternalRequirementsNote = "No external requirements"
)

// Snapshot normalization placeholders.
const (
	DirPlaceholder  = "$DIR"
	LinePlaceholder = "LL"
)

// EnvPrefix prefixes environment overrides, e.g. REGIONCK_VERBOSE=true.
const EnvPrefix = "REGIONCK"

// ConfigFileName is looked up in the working directory and ~/.regionck.
const ConfigFileName = "regionck"

// Version can be set at build time using:
// -ldflags "-X github.com/funvibe/regionck/internal/config.Version=1.2.3"
var Version = "0.1.0"
