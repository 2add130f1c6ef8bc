package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors
	TagNotFound   = goerr.NewTag("not_found")
	TagValidation = goerr.NewTag("validation")
	TagConflict   = goerr.NewTag("conflict")

	// Server errors
	TagDatabase = goerr.NewTag("database")
	TagExternal = goerr.NewTag("external")
	TagInternal = goerr.NewTag("internal")
)

// RepositoryKey identifies which repository backend produced an error.
var RepositoryKey = goerr.NewTypedKey[string]("repository")
