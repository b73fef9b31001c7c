// Package module implements Myco's module pipeline: specifier resolution
// (including the alias table), transpilation, ES module compilation,
// synchronous recursive instantiation, evaluation, and dynamic import.
package module

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"myco/hosterr"
	"myco/stacktrace"
	"myco/transpile"

	v8 "rogchap.com/v8go"
)

// Loader owns the URL↔path map, the source-map store, the alias table, and
// the compiled-module cache for one isolate. Every public entry point is
// only ever called from the engine thread — there is no internal locking.
type Loader struct {
	iso     *v8.Isolate
	urls    *URLMap
	maps    *stacktrace.Store
	aliases AliasMap
	workDir string

	ctx *v8.Context // set for the duration of one load/instantiate/dynamic-import call

	modules  map[string]*v8.Module // module URL -> compiled module (memoized, covers import cycles)
	byModule map[*v8.Module]string // compiled module -> its URL, so the resolver callback can find a referrer's base directory

	// baseDirs is the resolution stack: the ordered list of
	// base directories for modules currently being instantiated. Its top is
	// consulted by the resolver callback when the referrer module (passed
	// in by the engine) cannot itself be found in byModule yet — which
	// happens for the very first push, before Register has run.
	baseDirs []string

	lastResolveErr error // specifier that failed resolution during the current InstantiateModule call
}

// NewLoader constructs a Loader for one isolate. urls and maps are shared
// with the rest of the per-isolate state (they're also consulted by the
// stack-trace mapper and the ops surface).
func NewLoader(iso *v8.Isolate, workDir string, aliases AliasMap, urls *URLMap, maps *stacktrace.Store) *Loader {
	return &Loader{
		iso:      iso,
		urls:     urls,
		maps:     maps,
		aliases:  aliases,
		workDir:  workDir,
		modules:  make(map[string]*v8.Module),
		byModule: make(map[*v8.Module]string),
	}
}

// LoadEntry compiles and instantiates the top-level entry module, whose
// own relative imports resolve against its containing directory. absPath
// is the already-resolved entry file.
func (l *Loader) LoadEntry(ctx *v8.Context, absPath string) (*v8.Module, error) {
	l.ctx = ctx
	defer func() { l.ctx = nil }()
	return l.loadModule(absPath)
}

// Evaluate runs a compiled module's top-level code, returning the
// evaluation promise.
func (l *Loader) Evaluate(ctx *v8.Context, mod *v8.Module) (*v8.Value, error) {
	val, err := mod.Evaluate(ctx)
	if err != nil {
		return nil, &hosterr.EvaluationError{Message: err.Error()}
	}
	return val, nil
}

// DynamicImport implements the engine's import(specifier) callback: resolved against the working directory (dynamic imports
// have no natural referrer in this runtime), then loaded and evaluated the
// same way as any other module, resolving to the module's namespace object.
func (l *Loader) DynamicImport(ctx *v8.Context, specifier string) *v8.Value {
	l.ctx = ctx
	defer func() { l.ctx = nil }()

	resolver, err := v8.NewPromiseResolver(ctx)
	if err != nil {
		// Nothing we can do but panic the callback boundary; v8go's own
		// dynamic-import hook has no other error-reporting channel at this
		// point, since even the rejection path needs a working resolver.
		panic(err)
	}

	absPath, err := Resolve(specifier, l.workDir, l.aliases)
	if err != nil {
		l.rejectWith(resolver, err)
		return resolver.GetPromise().Value
	}

	mod, err := l.loadModule(absPath)
	if err != nil {
		l.rejectWith(resolver, err)
		return resolver.GetPromise().Value
	}

	if _, err := l.Evaluate(ctx, mod); err != nil {
		l.rejectWith(resolver, err)
		return resolver.GetPromise().Value
	}

	ns := mod.Namespace()
	if err := resolver.Resolve(ns); err != nil {
		l.rejectWith(resolver, err)
	}
	return resolver.GetPromise().Value
}

func (l *Loader) rejectWith(resolver *v8.PromiseResolver, err error) {
	val, mkErr := v8.NewValue(l.iso, "dynamic import failed: "+err.Error())
	if mkErr != nil {
		return
	}
	_ = resolver.Reject(val)
}

// loadModule is the shared compile/register/instantiate entry point both
// the top-level load path and the dynamic-import callback fall through to.
// It memoizes by URL so two imports of the same file via different
// relative forms, or a cyclic import, share one Module instance.
func (l *Loader) loadModule(absPath string) (*v8.Module, error) {
	url := PathToURL(absPath)
	if mod, ok := l.modules[url]; ok {
		return mod, nil
	}

	source, kind, hasMap, err := l.readAndTranspile(absPath, url)
	if err != nil {
		return nil, err
	}

	l.urls.Register(url, absPath, kind, hasMap)

	mod, err := l.iso.CompileModule(source, url, v8.CompileOptions{})
	if err != nil {
		return nil, &hosterr.CompilationError{URL: url, Err: err}
	}
	l.modules[url] = mod
	l.byModule[mod] = url

	l.baseDirs = append(l.baseDirs, filepath.Dir(absPath))
	l.lastResolveErr = nil
	instErr := mod.InstantiateModule(l.ctx, l.resolveCallback)
	l.baseDirs = l.baseDirs[:len(l.baseDirs)-1]

	if instErr != nil {
		cause := l.lastResolveErr
		if cause == nil {
			cause = instErr
		}
		return nil, &hosterr.InstantiationError{Specifier: absPath, Referrer: url, Cause: cause}
	}

	return mod, nil
}

// readAndTranspile loads absPath's content, classifying by extension
// family and running the transpiler for TS-family files.
func (l *Loader) readAndTranspile(absPath, url string) (source string, kind Kind, hasMap bool, err error) {
	switch classify(absPath) {
	case fileKindTS:
		result, terr := transpile.Transpile(absPath)
		if terr != nil {
			return "", 0, false, terr
		}
		js := string(result.JS)
		if len(result.MapJSON) > 0 {
			sm, perr := stacktrace.Parse(result.MapJSON)
			if perr != nil {
				return "", 0, false, perr
			}
			l.maps.Put(url, sm)
			js += "\n//# sourceMappingURL=data:application/json;base64," +
				base64.StdEncoding.EncodeToString(result.MapJSON)
			hasMap = true
		}
		return js, KindJS, hasMap, nil

	case fileKindJS:
		data, rerr := os.ReadFile(absPath)
		if rerr != nil {
			return "", 0, false, &hosterr.IOError{Op: "read", Path: absPath, Cause: rerr}
		}
		return string(data), KindJS, false, nil

	case fileKindJSON:
		data, rerr := os.ReadFile(absPath)
		if rerr != nil {
			return "", 0, false, &hosterr.IOError{Op: "read", Path: absPath, Cause: rerr}
		}
		// JSON modules are synthesized as a one-line ES module exporting the
		// parsed value. json.Marshal of a Go
		// string produces a double-quoted JSON string, which is also a
		// valid JS string literal, so this needs no separate escaper.
		literal, merr := json.Marshal(string(data))
		if merr != nil {
			return "", 0, false, &hosterr.IOError{Op: "encode", Path: absPath, Cause: merr}
		}
		return "export default JSON.parse(" + string(literal) + ");", KindJSON, false, nil

	default:
		return "", 0, false, &hosterr.ResolutionError{Specifier: absPath, Msg: "unknown module type"}
	}
}

// resolveCallback is handed to v8go's InstantiateModule; V8 calls it once
// per import in the dependency graph being instantiated, supplying the
// referrer module so we can recover its base directory for relative
// specifiers. Returning nil fails that edge; the real error is stashed in
// lastResolveErr since v8go's callback shape carries no error return.
func (l *Loader) resolveCallback(specifier string, referrer *v8.Module) *v8.Module {
	baseDir := l.currentBaseDir(referrer)

	absPath, err := Resolve(specifier, baseDir, l.aliases)
	if err != nil {
		l.lastResolveErr = err
		return nil
	}

	mod, err := l.loadModule(absPath)
	if err != nil {
		l.lastResolveErr = err
		return nil
	}
	return mod
}

func (l *Loader) currentBaseDir(referrer *v8.Module) string {
	if referrer != nil {
		if url, ok := l.byModule[referrer]; ok {
			if dir, ok := l.urls.BaseDirFor(url); ok {
				return dir
			}
		}
	}
	if n := len(l.baseDirs); n > 0 {
		return l.baseDirs[n-1]
	}
	return l.workDir
}
