package engine

// bootstrapJS builds the public Myco API surface out of the raw MycoOps
// object, then deletes both MycoOps and globalThis.Myco so user code can
// only ever reach the API through the argument passed to its default
// export. The user module itself is loaded and invoked from Go, so this
// script's only job is building the Myco object and returning the invoke
// wrapper; it never touches the entry module.
const bootstrapJS = `
(function() {
	const ops = globalThis.MycoOps;
	const Myco = globalThis.Myco;

	function wrap(fn) {
		return function(...args) { return fn.apply(null, args); };
	}

	function makeReadHandle(token) {
		return {
			read: (path) => ops.fs.read_file(token, path),
			readSync: (path) => ops.fs.read_file_sync(token, path),
			stat: (path) => ops.fs.stat_file(token, path),
			statSync: (path) => ops.fs.stat_file_sync(token, path),
		};
	}

	function makeWriteHandle(token) {
		return {
			write: (path, contents) => ops.fs.write_file(token, contents, path),
			writeSync: (path, contents) => ops.fs.write_file_sync(token, contents, path),
			remove: (path) => ops.fs.remove_file(token, path),
			removeSync: (path) => ops.fs.remove_file_sync(token, path),
			stat: (path) => ops.fs.stat_file(token, path),
			statSync: (path) => ops.fs.stat_file_sync(token, path),
		};
	}

	function makeReadDirHandle(token) {
		return {
			list: (path) => ops.fs.list_dir(token, path ?? ""),
			listSync: (path) => ops.fs.list_dir_sync(token, path ?? ""),
		};
	}

	function makeWriteDirHandle(token) {
		return {
			mkdirp: (path) => ops.fs.mkdirp(token, path),
			mkdirpSync: (path) => ops.fs.mkdirp_sync(token, path),
			rmdir: (path) => ops.fs.rmdir(token, path),
			rmdirSync: (path) => ops.fs.rmdir_sync(token, path),
			rmdirRecursive: (path) => ops.fs.rmdir_recursive(token, path),
			rmdirRecursiveSync: (path) => ops.fs.rmdir_recursive_sync(token, path),
		};
	}

	function makeExecHandle(token, hasSubPath) {
		return {
			exec: (pathOrArgs, argv) => {
				if (hasSubPath) return ops.fs.exec_file(token, pathOrArgs, argv ?? []);
				return ops.fs.exec_file(token, undefined, pathOrArgs ?? []);
			},
			execSync: (pathOrArgs, argv) => {
				if (hasSubPath) return ops.fs.exec_file_sync(token, pathOrArgs, argv ?? []);
				return ops.fs.exec_file_sync(token, undefined, pathOrArgs ?? []);
			},
		};
	}

	Myco.files = {
		requestRead: (path) => makeReadHandle(ops.fs.request_read_file(path)),
		requestWrite: (path) => makeWriteHandle(ops.fs.request_write_file(path)),
		requestReadDir: (path) => makeReadDirHandle(ops.fs.request_read_dir(path)),
		requestWriteDir: (path) => makeWriteDirHandle(ops.fs.request_write_dir(path)),
		requestExecFile: (path) => makeExecHandle(ops.fs.request_exec_file(path), false),
		requestExecDir: (path) => makeExecHandle(ops.fs.request_exec_dir(path), true),
	};

	Myco.http = {
		requestFetch: (url) => {
			const token = ops.net.request_fetch_url(url);
			return { fetch: () => ops.net.fetch_url(token) };
		},
		requestFetchPrefix: (prefix) => {
			const token = ops.net.request_fetch_prefix(prefix);
			return { fetch: (subpath) => ops.net.fetch_url(token, subpath ?? "") };
		},
	};

	const timerCallbacks = new Map();
	globalThis.__mycoTimerComplete = function(id) {
		const cb = timerCallbacks.get(id);
		if (cb === undefined) return;
		timerCallbacks.delete(id);
		try {
			cb();
		} catch (e) {
			globalThis.__MYCO_UNHANDLED_ERROR__ = e;
		}
	};

	Myco.setTimeout = function(fn, ms) {
		const id = ops.time.set_timeout(ms);
		timerCallbacks.set(id, fn);
		return id;
	};
	Myco.clearTimeout = function(id) {
		timerCallbacks.delete(id);
		ops.time.clear_timeout(id);
	};

	Myco.console = {
		log: wrap((...a) => ops.misc.print(a.map(String).join(" ") + "\n", false)),
		error: wrap((...a) => ops.misc.print(a.map(String).join(" ") + "\n", true)),
		trace: wrap(() => ops.misc.trace()),
	};

	Myco.encoding = {
		utf8: {
			encode: wrap((text) => ops.encoding.encode_utf8(text)),
			decode: wrap((bytes) => ops.encoding.decode_utf8(bytes)),
		},
	};

	Myco.toml = {
		parse: wrap((s) => ops.misc.toml_parse(s)),
		stringify: wrap((v) => ops.misc.toml_stringify(v)),
	};

	Myco.process = {
		cwd: wrap(() => ops.misc.cwd()),
		chdir: wrap((path) => ops.misc.chdir(path)),
	};

	delete globalThis.MycoOps;
	delete globalThis.Myco;

	return function invoke(entryDefault) {
		try {
			const result = entryDefault(Myco);
			if (result && typeof result.then === "function") {
				result.then(
					(v) => { if (typeof v === "number") globalThis.__MYCO_EXIT_CODE__ = v; },
					(e) => { globalThis.__MYCO_UNHANDLED_ERROR__ = e; }
				);
			} else if (typeof result === "number") {
				globalThis.__MYCO_EXIT_CODE__ = result;
			}
		} catch (e) {
			globalThis.__MYCO_UNHANDLED_ERROR__ = e;
		}
	};
})();
`
