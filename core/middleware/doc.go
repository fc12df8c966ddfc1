// Package middleware groups the HTTP middleware of the serve command.
//
// # Components
//
//   - auth: rejects requests whose X-API-Key header (or api_key query parameter)
//     does not match the configured key. An empty key leaves the API open.
//   - rayid: assigns every request a ray id, reusing an incoming X-Ray-ID header,
//     stores it in the Fiber locals and echoes it on the response.
//
// Swagger is registered before auth so the UI stays reachable.
package middleware
