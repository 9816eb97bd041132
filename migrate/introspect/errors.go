package introspect

import "errors"

var (
	ErrUnsupportedProvider = errors.New("row level security requires a postgresql datasource")
	ErrConnectionFailed    = errors.New("failed to connect to database")
	ErrIntrospectionFailed = errors.New("database introspection failed")
	ErrUnsupportedVersion  = errors.New("server does not support row level security")
)
