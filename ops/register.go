package ops

import (
	"fmt"

	v8 "rogchap.com/v8go"
)

// Register builds the MycoOps object template: one child ObjectTemplate per
// namespace, each installed onto the root with v8.ReadOnly. The
// engine orchestrator attaches the result to the global object template
// under the name "MycoOps" before the context is created.
func Register(iso *v8.Isolate, state *State) (*v8.ObjectTemplate, error) {
	root := v8.NewObjectTemplate(iso)

	builders := []struct {
		name  string
		build func(*v8.Isolate, *State) (*v8.ObjectTemplate, error)
	}{
		{"fs", newFsNamespace},
		{"net", newNetNamespace},
		{"time", newTimeNamespace},
		{"encoding", newEncodingNamespace},
		{"misc", newMiscNamespace},
	}

	for _, b := range builders {
		ns, err := b.build(iso, state)
		if err != nil {
			return nil, fmt.Errorf("build %s namespace: %w", b.name, err)
		}
		if err := root.Set(b.name, ns, v8.ReadOnly); err != nil {
			return nil, fmt.Errorf("set %s namespace: %w", b.name, err)
		}
	}

	return root, nil
}
