// Package toolexecutor turns manifest-described tool scripts into callables.
//
// Invariants:
// - Tool names are unique within a parsed manifest.
// - The denylist always overrides the allowlist.
// - Required parameters are checked before any subprocess is spawned.
// - Every invocation produces exactly one ExecutionResult and removes its
//   temporary output file on every exit path.
//
// Usage:
//
//	defs := toolexecutor.ParseManifest(gjson.ParseBytes(data))
//	policy := &toolexecutor.ToolPolicy{Deny: []string{"rm"}}
//	defs = policy.Filter(defs)
//	resolver := toolexecutor.NewResolver(root)
//	exec := toolexecutor.NewExecutor(root, toolexecutor.DefaultLimits())
//	for _, def := range defs {
//		script, err := resolver.Resolve(def.Name)
//		if err != nil {
//			continue
//		}
//		wrapper := toolexecutor.NewToolWrapper(def, script, exec)
//		out, err := wrapper.Call(ctx, map[string]interface{}{"command": "ls"})
//	}
package toolexecutor
