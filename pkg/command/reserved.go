package command

import "slices"

// ReservedFlags is the sorted set of flag names reserved for the top-level
// invocation. Build it once and pass it to whatever needs it.
type ReservedFlags struct {
	names []string
}

// NewReservedFlags returns a sorted, de-duplicated set of flag names.
func NewReservedFlags(names ...string) ReservedFlags {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return ReservedFlags{names: slices.Compact(sorted)}
}

// ReservedFlagsOf collects the names of the given flags.
func ReservedFlagsOf(flags []Flag) ReservedFlags {
	names := make([]string, 0, len(flags))
	for _, f := range flags {
		names = append(names, f.Name)
	}
	return NewReservedFlags(names...)
}

// Contains reports whether name is reserved.
func (r ReservedFlags) Contains(name string) bool {
	_, found := slices.BinarySearch(r.names, name)
	return found
}

// Names returns the reserved names in sorted order.
func (r ReservedFlags) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of reserved names.
func (r ReservedFlags) Len() int {
	return len(r.names)
}
