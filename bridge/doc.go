// Package bridge is the entry point of the content bridge.
//
// A Bridge receives a method name with its arguments, checks the permission
// gate, looks the method up in the operation registry and resolves exactly one
// Outcome for the call. The two permission methods bypass the gate:
// checkPermission reports the grant state and requestPremission (also
// accepted as requestPermission) runs the prompt handshake.
//
// Lifecycle:
//
//	b, _ := bridge.New(gate, bridge.WithStager(stager))
//	b.Attach(api)     // host engine available
//	b.AttachUI(ui)    // prompts possible
//	out, err := b.Call(ctx, "addNote", args)
//	b.DetachUI()      // abandons a pending prompt
//	b.Detach()
package bridge
