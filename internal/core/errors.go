package core

import "errors"

// errMissingAccountRef is returned when a rule requires account_ref in its
// config and the client config omits it.
var errMissingAccountRef = errors.New("account_ref is required")
