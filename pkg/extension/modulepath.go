package extension

import (
	"os"
	"unsafe"
)

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

// must precede every system header for glibc to declare dladdr
#ifndef _WIN32
#define _GNU_SOURCE
#endif

#include <stdlib.h>
#include <string.h>

#ifdef _WIN32
#define WIN32_LEAN_AND_MEAN
#include <windows.h>

static char* pc_module_path(void) {
	HMODULE self = NULL;
	DWORD flags = GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT;
	if (!GetModuleHandleExA(flags, (LPCSTR)pc_module_path, &self)) {
		return NULL;
	}
	for (DWORD size = MAX_PATH; size <= 32768; size *= 2) {
		char* buf = (char*)malloc(size);
		if (buf == NULL) {
			return NULL;
		}
		DWORD n = GetModuleFileNameA(self, buf, size);
		if (n > 0 && n < size) {
			return buf;
		}
		free(buf);
		if (n == 0) {
			return NULL;
		}
	}
	return NULL;
}

#elif defined(__linux__) || defined(__APPLE__)
#include <dlfcn.h>

static char* pc_module_path(void) {
	Dl_info info;
	if (dladdr((void*)pc_module_path, &info) == 0 || info.dli_fname == NULL) {
		return NULL;
	}
	return strdup(info.dli_fname);
}

#else
static char* pc_module_path(void) { return NULL; }
#endif
*/
import "C"

// GetModulePath returns the path of the loaded library, or of the running
// executable when the platform cannot tell. The config file and logs live
// next to it.
func GetModulePath() string {
	p := C.pc_module_path()
	if p == nil {
		exe, _ := os.Executable()
		return exe
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}
