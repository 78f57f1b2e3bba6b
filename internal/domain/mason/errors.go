package mason

import "errors"

var ErrMasonNotFound = errors.New("mason not found")
