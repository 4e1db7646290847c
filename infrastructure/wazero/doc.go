// Package wazero exposes the bridge to WebAssembly guests running in the
// wazero runtime.
//
// The host module (default name "ankibridge_host") exports:
//
//   - invoke_method(i64) i64: the argument is a packed ptr+len pointing to a
//     JSON {"method": ..., "args": {...}} request; the result is a packed
//     ptr+len of the JSON Outcome, written into memory obtained from the
//     guest's "allocate" export.
//   - log_message(i64): a packed ptr+len of a JSON log record, replayed
//     through the host logger.
//
// # Basic Usage
//
//	exec, err := wazero.NewExecutor(ctx, bridge,
//	    wazero.WithAdapterOptions(wazero.WithAllowedMethods("test", "deckList")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer exec.Close(ctx)
//
//	guest, err := exec.LoadGuest(ctx, "importer", wasmBytes)
//	out, err := guest.Call(ctx, "run", input)
package wazero
