// Package guest is the client side of the WASM transport: code compiled with
// GOOS=wasip1 uses it to call bridge methods and to log through the host.
//
// On wasip1 the package exports "allocate" and "deallocate" and imports
// "invoke_method" and "log_message" from the "ankibridge_host" module.
// Elsewhere only the transport-independent parts are available, which keeps
// them testable.
package guest
