// Package restweaver validates HTTP requests against per-method contracts and
// derives an OpenAPI document and documentation page from the same contracts.
//
// A Framework owns the route registry, the request pipeline, the spec builder,
// the docs handler and the config reconciler. Routes declare, per method, the
// accepted content type, body, query and header schemas, the handler and the
// possible outputs. Requests that do not satisfy the contract are answered
// with a fixed error envelope before the handler runs.
//
// # Packages
//
//   - contract: methods, route contracts, handler results and the registry.
//   - schema: the validator abstraction and its kin-openapi adapter.
//   - negotiate: content type matching.
//   - pipeline: the per-request validation state machine.
//   - responder: JSON bodies, error envelopes and trace ids.
//   - spec: OpenAPI derivation, overrides and document stores.
//   - docs: the documentation page, the document endpoint and probes.
//   - config and reconcile: the configuration surface and change detection.
//   - router: the ServeMux middleware chain.
//   - cli: generate, validate and serve commands.
//
// # Quick Start
//
//	fw := restweaver.New(restweaver.WithConfig(config.Config{
//	    DocsConfig: config.DocsConfig{Title: "Todo API"},
//	}))
//	fw.MustRoute("/todos", contract.MethodContract{
//	    Method: contract.GET,
//	    Output: []contract.OutputSpec{{Status: 200, Schema: schema.MustFor[[]Todo]()}},
//	    Handler: listTodos,
//	})
//	http.ListenAndServe(":8080", fw.Handler())
//
// The document is served at /openapi.json and the page at /docs unless the
// config says otherwise.
package restweaver
