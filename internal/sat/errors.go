package sat

import "errors"

// ErrOutOfMemory is returned when the clause database's arena cannot grow to
// satisfy an allocation within its configured ceiling (spec §7). It is the
// core's only fatal error: once returned, the solver's state is poisoned and
// further calls are undefined.
var ErrOutOfMemory = errors.New("sat: clause database exhausted its memory ceiling")
