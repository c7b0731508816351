// Package handlers implements the HTTP API layer for the endpoint
// collector control plane.
//
// Handlers are plain methods on a per-domain *Handler struct holding
// the service (or, where no orchestration is needed beyond persistence,
// the store) they front; they validate the request, translate it into
// a service call, and map the result or error onto HTTP, leaving every
// business rule to internal/services.
//
// # Surfaces
//
// Two distinct surfaces are mounted on the same gin.Engine:
//
//	/api/agent/*   the wire-stable protocol an agent speaks (agent.go):
//	               register, heartbeat, command-result — see
//	               RegisterAgentRoutes.
//	/api/v1/*      the operator-facing surface — see
//	               RegisterOperatorRoutes.
//
// # Operator Endpoints
//
//	GET  /api/v1/hosts                        list, filter, sort, paginate
//	GET  /api/v1/hosts/{id}                    get one Host
//	POST /api/v1/configs                       validate + upload a Config
//	GET  /api/v1/configs/{id}                  get one Config
//	POST /api/v1/jobs                          start a DeploymentJob
//	GET  /api/v1/jobs/{id}                     get a DeploymentJob
//	GET  /api/v1/jobs/{id}/results             list its per-Host Results
//	POST /api/v1/jobs/{id}/cancel              cancel a non-terminal Job
//	POST /api/v1/schedules                     create a ScheduledDeployment
//	GET  /api/v1/schedules/due                 list schedules due now
//	POST /api/v1/schedules/run                 force one engine tick
//	POST /api/v1/hosts/{id}/noise-analysis     run noise analysis
//	GET  /api/v1/noise-runs/{id}               get a run + its results
//	GET  /api/v1/noise-runs/{id}/exclusion-pack
//	POST /api/v1/noise/compare                 cross-host pattern comparison
//	GET  /api/v1/audit                         list audit entries
//
// # Error Handling
//
// writeOperatorError maps every pkg/errors kind to a status code
// (NotFound→404, Validation→400, IntegrityFailure→422,
// TransportUnavailable→503, AgentTimeout→504, RemoteFailure→502,
// AgentAuthFailed→401, Cancelled→409, anything else→500). The
// narrower agent wire protocol (writeError in agent.go) only carves
// out 401/404 for identity failures; every other agent-side error is
// a 500, since spec §6.1 treats most outcomes as a 200 carrying an
// application-level status instead.
package handlers
