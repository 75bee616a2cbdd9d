// Package sqlfn is a small functional layer over pgx.
//
// A call is described by an immutable Options value and run by one of the
// entry points:
//
//	o := sqlfn.FromConnectionString(dsn).
//		WithQuery("SELECT id, name FROM users WHERE id = @id").
//		WithParams(sqlfn.Int("@id", 5))
//
//	user, err := sqlfn.QuerySingle(ctx, o, func(row value.Row) (User, error) {
//		id, err := value.GetInt("id", row)
//		if err != nil {
//			return User{}, err
//		}
//		name, err := value.GetString("name", row)
//		return User{ID: id, Name: name}, err
//	})
//
// Cells are decoded into value.Value, a closed set of typed variants chosen
// from the column type the server reports. Conversions never coerce.
//
// Options built from a connection string open and close a connection per
// call. Options built from a connection reuse it and never close it.
//
// Parameters are written as @name in the statement text and rewritten to
// positional placeholders before execution. A placeholder without a
// parameter is a BindError.
//
// Every entry point returns (T, error). Result and the Try and Async helpers
// wrap the same calls.
package sqlfn
