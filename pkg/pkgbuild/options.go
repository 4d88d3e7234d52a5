package pkgbuild

// OptionState is a tri-state flag: a build option is either unset by the
// recipe, explicitly turned on (bare name), or explicitly turned off
// ("!"-prefixed name).
type OptionState int

const (
	// OptionAbsent means the recipe's options array did not mention this flag.
	OptionAbsent OptionState = iota
	// OptionOn means the bare name was present.
	OptionOn
	// OptionOff means the "!"-prefixed name was present.
	OptionOff
)

// OptionName enumerates the twelve recognised option flags.
type OptionName string

// The closed set of recognised option names.
const (
	OptionStrip      OptionName = "strip"
	OptionDocs       OptionName = "docs"
	OptionLibtool    OptionName = "libtool"
	OptionStaticLibs OptionName = "staticlibs"
	OptionEmptyDirs  OptionName = "emptydirs"
	OptionZipman     OptionName = "zipman"
	OptionCcache     OptionName = "ccache"
	OptionDistcc     OptionName = "distcc"
	OptionBuildFlags OptionName = "buildflags"
	OptionMakeFlags  OptionName = "makeflags"
	OptionDebug      OptionName = "debug"
	OptionLto        OptionName = "lto"
)

// KnownOptionNames is the closed set of the twelve option flags, in the
// canonical order they are documented and rendered in SRCINFO.
var KnownOptionNames = []OptionName{
	OptionStrip, OptionDocs, OptionLibtool, OptionStaticLibs, OptionEmptyDirs,
	OptionZipman, OptionCcache, OptionDistcc, OptionBuildFlags, OptionMakeFlags,
	OptionDebug, OptionLto,
}

// Options is the fixed record of twelve tri-state build flags.
type Options struct {
	Strip      OptionState
	Docs       OptionState
	Libtool    OptionState
	StaticLibs OptionState
	EmptyDirs  OptionState
	Zipman     OptionState
	Ccache     OptionState
	Distcc     OptionState
	BuildFlags OptionState
	MakeFlags  OptionState
	Debug      OptionState
	Lto        OptionState
}

// Get returns the state of a named option, or OptionAbsent for unknown names.
func (o Options) Get(name OptionName) OptionState {
	switch name {
	case OptionStrip:
		return o.Strip
	case OptionDocs:
		return o.Docs
	case OptionLibtool:
		return o.Libtool
	case OptionStaticLibs:
		return o.StaticLibs
	case OptionEmptyDirs:
		return o.EmptyDirs
	case OptionZipman:
		return o.Zipman
	case OptionCcache:
		return o.Ccache
	case OptionDistcc:
		return o.Distcc
	case OptionBuildFlags:
		return o.BuildFlags
	case OptionMakeFlags:
		return o.MakeFlags
	case OptionDebug:
		return o.Debug
	case OptionLto:
		return o.Lto
	default:
		return OptionAbsent
	}
}

// set mutates the receiver in place for the named option; unknown names are
// a no-op here (the lifter is responsible for warning on those before calling set).
func (o *Options) set(name OptionName, state OptionState) {
	switch name {
	case OptionStrip:
		o.Strip = state
	case OptionDocs:
		o.Docs = state
	case OptionLibtool:
		o.Libtool = state
	case OptionStaticLibs:
		o.StaticLibs = state
	case OptionEmptyDirs:
		o.EmptyDirs = state
	case OptionZipman:
		o.Zipman = state
	case OptionCcache:
		o.Ccache = state
	case OptionDistcc:
		o.Distcc = state
	case OptionBuildFlags:
		o.BuildFlags = state
	case OptionMakeFlags:
		o.MakeFlags = state
	case OptionDebug:
		o.Debug = state
	case OptionLto:
		o.Lto = state
	}
}

// Set is the exported form of set, used by the lifter once it has validated
// that name is one of KnownOptionNames.
func (o *Options) Set(name OptionName, state OptionState) {
	o.set(name, state)
}

// IsKnownOptionName reports whether name is one of the twelve recognised flags.
func IsKnownOptionName(name string) bool {
	for _, known := range KnownOptionNames {
		if string(known) == name {
			return true
		}
	}

	return false
}
