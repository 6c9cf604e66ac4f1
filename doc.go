/*
Package aresmysql is the MySQL datasource layer: it multiplexes many
logical sessions over small pools of physical connections, tracks one
named transaction per session, and exposes query execution as both a
future and a blocking call.

Pools are created lazily, once per registered settings name, and live
for the rest of the process. Sessions borrow exactly one physical
connection each; the generated CRUD code and other collaborators only
ever talk to sessions.

# Basic Usage

	pools := aresmysql.NewPoolRegistry()
	sessions := aresmysql.NewSessionRegistry(pools, slog.Default())
	sessions.RegisterSettings("shop", aresmysql.DefaultSettings("db", 3306, "app", pw, "shop"))

	session, err := sessions.Session(ctx, aresmysql.NewSessionID(), "shop")
	if err != nil {
	    log.Fatal(err)
	}
	defer session.Disconnect(ctx)

	resp, err := session.Execute(ctx, "SELECT id, total FROM orders WHERE status = ?", "open")

# Transactions

A session holds at most one named transaction. Starting a second one
is ignored, and commit or rollback under a different name is ignored
too, so racing code paths sharing a session cannot close each other's
scopes.

	_ = session.StartTransaction(ctx, "checkout")
	_, err = session.Execute(ctx, "UPDATE orders SET status = 'paid' WHERE id = ?", id)
	if err != nil {
	    _ = session.Rollback(ctx, "checkout")
	} else {
	    err = session.Commit(ctx, "checkout")
	}

# Async execution

	future := session.ExecuteAsync(ctx, "SELECT * FROM orders")
	// ... other work off this session ...
	resp, err := future.Wait(ctx)

# Production mode

Settings with Production set suppress the Query and Params diagnostic
fields on QueryResponse, keeping SQL literals out of production logs.

# Observability

Logging (slog), metrics (Prometheus) and tracing (OpenTelemetry) hook
into every statement via the pool's Settings; see the hooks package.
*/
package aresmysql
