package aresmysql

import (
	"context"
)

// Statement is one parameterized statement of a script.
type Statement struct {
	SQL    string
	Params []any
}

// ExecuteBatch runs a script of statements sequentially on the
// session's connection, in issue order, stopping at the first failure.
// Responses for the statements executed so far are returned alongside
// the error. Generated CRUD scripts are the main caller; pools serving
// them should enable multi-statement execution in their Settings.
func (s *Session) ExecuteBatch(ctx context.Context, statements []Statement) ([]*QueryResponse, error) {
	if len(statements) == 0 {
		return nil, nil
	}

	responses := make([]*QueryResponse, 0, len(statements))
	for _, stmt := range statements {
		resp, err := s.run(ctx, stmt.SQL, stmt.Params)
		responses = append(responses, resp)
		if err != nil {
			return responses, err
		}
	}
	return responses, nil
}
