package ops

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"myco/capability"
	"myco/jsvalue"

	v8 "rogchap.com/v8go"
)

// newFsNamespace builds the "fs" namespace: the six capability-request ops
// plus the capability-gated filesystem ops in both promise-returning and
// synchronous form.
func newFsNamespace(iso *v8.Isolate, state *State) (*v8.ObjectTemplate, error) {
	ns := newNamespace(iso)

	type entry struct {
		name string
		cb   v8.FunctionCallback
	}
	entries := []entry{
		{"request_read_file", fsRequestOp(state, "request_read_file", capability.ReadFile, checkReadFilePrecondition)},
		{"request_write_file", fsRequestOp(state, "request_write_file", capability.WriteFile, checkWriteFilePrecondition)},
		{"request_exec_file", fsRequestOp(state, "request_exec_file", capability.ExecFile, checkExecFilePrecondition)},
		{"request_read_dir", fsRequestOp(state, "request_read_dir", capability.ReadDir, checkReadDirPrecondition)},
		{"request_write_dir", fsRequestOp(state, "request_write_dir", capability.WriteDir, checkDirExistsPrecondition)},
		{"request_exec_dir", fsRequestOp(state, "request_exec_dir", capability.ExecDir, checkDirExistsPrecondition)},

		{"read_file", opReadFile(state, true)},
		{"read_file_sync", opReadFile(state, false)},
		{"write_file", opWriteFile(state, true)},
		{"write_file_sync", opWriteFile(state, false)},
		{"remove_file", opRemoveFile(state, true)},
		{"remove_file_sync", opRemoveFile(state, false)},
		{"stat_file", opStatFile(state, true)},
		{"stat_file_sync", opStatFile(state, false)},
		{"list_dir", opListDir(state, true)},
		{"list_dir_sync", opListDir(state, false)},
		{"mkdirp", opMkdirp(state, true)},
		{"mkdirp_sync", opMkdirp(state, false)},
		{"rmdir", opRmdir(state, true, false)},
		{"rmdir_sync", opRmdir(state, false, false)},
		{"rmdir_recursive", opRmdir(state, true, true)},
		{"rmdir_recursive_sync", opRmdir(state, false, true)},
		{"exec_file", opExecFile(state, true)},
		{"exec_file_sync", opExecFile(state, false)},
	}

	for _, e := range entries {
		if err := set(ns, iso, e.name, e.cb); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

// --- capability-request ops ---

// checkReadFilePrecondition implements "file exists and is a file, OR parent
// directory exists (allows later create)".
func checkReadFilePrecondition(path string) error {
	fi, err := os.Stat(path)
	if err == nil {
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("path is not a file: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	return checkParentDirExists(path)
}

// checkWriteFilePrecondition implements "file is a file or parent directory
// exists".
func checkWriteFilePrecondition(path string) error {
	fi, err := os.Stat(path)
	if err == nil {
		if fi.IsDir() {
			return fmt.Errorf("path is a directory, not a file: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	return checkParentDirExists(path)
}

func checkParentDirExists(path string) error {
	parent := filepath.Dir(path)
	fi, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("parent directory does not exist: %s", parent)
	}
	if !fi.IsDir() {
		return fmt.Errorf("parent path is not a directory: %s", parent)
	}
	return nil
}

// checkExecFilePrecondition implements "file exists; on POSIX, any execute
// bit is set".
func checkExecFilePrecondition(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("path is not a file: %s", path)
	}
	if fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("file is not executable: %s", path)
	}
	return nil
}

// checkReadDirPrecondition implements "directory exists and is readable".
func checkReadDirPrecondition(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if !fi.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	if _, err := os.ReadDir(path); err != nil {
		return fmt.Errorf("cannot read directory %s: %w", path, err)
	}
	return nil
}

// checkDirExistsPrecondition implements the plain "directory exists" check
// shared by request_write_dir and request_exec_dir.
func checkDirExistsPrecondition(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if !fi.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// fsRequestOp builds one filesystem capability-request op: resolve the path
// argument against the tracked cwd, run precondition, mint and return the
// token.
func fsRequestOp(state *State, opName string, kind capability.Kind, precondition func(string) error) v8.FunctionCallback {
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		iso := info.Context().Isolate()
		path, err := argString(info, 0, "path")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		path = state.resolveRelative(path)

		if err := precondition(path); err != nil {
			return throwOpError(iso, opName, err)
		}

		token, err := state.Capabilities.Register(capability.Capability{Kind: kind, Value: path})
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		val, err := v8.NewValue(iso, token)
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return val
	}
}

// --- capability-gated filesystem ops ---

// tokenAndOptionalPath reads the (token, optional sub-path) argument pair
// every op but mkdirp/rmdir (which require the sub-path) accepts.
func tokenAndOptionalPath(info *v8.FunctionCallbackInfo, opName string) (token, subPath string, hasSubPath bool, err error) {
	token, err = argString(info, 0, "token")
	if err != nil {
		return "", "", false, err
	}
	subPath, hasSubPath = argOptionalString(info, 1)
	return token, subPath, hasSubPath, nil
}

func opReadFile(state *State, async bool) v8.FunctionCallback {
	const opName = "read_file"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, subPath, hasSubPath, err := tokenAndOptionalPath(info, opName)
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}

		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, hasSubPath, accessRead)
			if err != nil {
				return nil, err
			}
			return os.ReadFile(path)
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opWriteFile(state *State, async bool) v8.FunctionCallback {
	const opName = "write_file"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, err := argString(info, 0, "token")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		contents, err := argBytes(ctx, info, 1, "contents")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		subPath, hasSubPath := argOptionalString(info, 2)

		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, hasSubPath, accessWrite)
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, contents, 0o644); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opRemoveFile(state *State, async bool) v8.FunctionCallback {
	const opName = "remove_file"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, subPath, hasSubPath, err := tokenAndOptionalPath(info, opName)
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, hasSubPath, accessWrite)
			if err != nil {
				return nil, err
			}
			return nil, os.Remove(path)
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opStatFile(state *State, async bool) v8.FunctionCallback {
	const opName = "stat_file"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, subPath, hasSubPath, err := tokenAndOptionalPath(info, opName)
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, hasSubPath, accessRead)
			if err != nil {
				return nil, err
			}
			fi, err := os.Stat(path)
			if err != nil {
				return nil, nil // missing file: null stats, not an error (original's behavior)
			}
			return statsMap(fi), nil
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opListDir(state *State, async bool) v8.FunctionCallback {
	const opName = "list_dir"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, err := argString(info, 0, "token")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		subPath, err := argString(info, 1, "path")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, true, accessRead)
			if err != nil {
				return nil, err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}
			out := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				fi, err := e.Info()
				if err != nil {
					return nil, err
				}
				out = append(out, map[string]any{"name": e.Name(), "stats": statsMap(fi)})
			}
			return out, nil
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opMkdirp(state *State, async bool) v8.FunctionCallback {
	const opName = "mkdirp"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, err := argString(info, 0, "token")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		subPath, err := argString(info, 1, "path")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, true, accessWrite)
			if err != nil {
				return nil, err
			}
			return nil, os.MkdirAll(path, 0o755)
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opRmdir(state *State, async, recursive bool) v8.FunctionCallback {
	opName := "rmdir"
	if recursive {
		opName = "rmdir_recursive"
	}
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, err := argString(info, 0, "token")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		subPath, err := argString(info, 1, "path")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, true, accessWrite)
			if err != nil {
				return nil, err
			}
			if recursive {
				return nil, os.RemoveAll(path)
			}
			return nil, os.Remove(path)
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func opExecFile(state *State, async bool) v8.FunctionCallback {
	const opName = "exec_file"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, err := argString(info, 0, "token")
		if err != nil {
			return syncOrRejected(iso, ctx, state, async, opName, nil, err)
		}
		subPath, hasSubPath := argOptionalString(info, 1)
		args := info.Args()
		var argv []string
		if len(args) > 2 {
			argv, err = jsvalue.StringSlice(ctx, args[2])
			if err != nil {
				return syncOrRejected(iso, ctx, state, async, opName, nil, err)
			}
		}

		work := func() (any, error) {
			path, err := resolvePath(state, token, subPath, hasSubPath, accessExec)
			if err != nil {
				return nil, err
			}
			cmd := exec.Command(path, argv...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			runErr := cmd.Run()
			exitCode := 0
			if runErr != nil {
				if exitErr, ok := runErr.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					return nil, fmt.Errorf("execute %s: %w", path, runErr)
				}
			} else {
				exitCode = cmd.ProcessState.ExitCode()
			}
			// json.Marshal would base64-encode a raw []byte inside the map;
			// the op's contract is a numeric byte array, so widen first.
			return map[string]any{
				"stdout":    byteNums(stdout.Bytes()),
				"stderr":    byteNums(stderr.Bytes()),
				"exit_code": exitCode,
			}, nil
		}
		return syncOrAsync(iso, ctx, state, async, opName, work)
	}
}

func byteNums(b []byte) []int {
	out := make([]int, len(b))
	for i, by := range b {
		out[i] = int(by)
	}
	return out
}

// statsMap builds the {is_file,is_dir,is_symlink,size,readonly,modified,
// accessed,created} shape. accessed/created fall back to null when
// the platform's Stat_t is unavailable; modified always comes from
// FileInfo.ModTime, which every platform provides.
func statsMap(fi os.FileInfo) map[string]any {
	m := map[string]any{
		"is_file":    fi.Mode().IsRegular(),
		"is_dir":     fi.IsDir(),
		"is_symlink": fi.Mode()&os.ModeSymlink != 0,
		"size":       fi.Size(),
		"readonly":   fi.Mode().Perm()&0o222 == 0,
		"modified":   fi.ModTime().Unix(),
		"accessed":   nil,
		"created":    nil,
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		m["accessed"] = st.Atim.Sec
		m["created"] = st.Ctim.Sec
	}
	return m
}
