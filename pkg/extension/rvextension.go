package extension

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C"
import (
	"context"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/PearlCalc/extension/internal/dispatcher"
)

// Config defines how calls to this extension will be handled
var Config configStruct = configStruct{}

func init() {
	Config.Init()
}

// called by the game to get the version of the extension
//
//export RVExtensionVersion
func RVExtensionVersion(output *C.char, outputsize C.size_t) {
	replyToSyncCall(Config.rvExtensionVersion, output, outputsize)
}

// called as: "pearl_calculator" callExtension "command|arg"
//
//export RVExtension
func RVExtension(output *C.char, outputsize C.size_t, input *C.char) {
	command, arg, hasArg := strings.Cut(C.GoString(input), "|")
	var args []string
	if hasArg {
		args = []string{arg}
	}
	replyToSyncCall(handle(command, args, int(outputsize)), output, outputsize)
}

// called as: "pearl_calculator" callExtension ["command", [args]]
//
//export RVExtensionArgs
func RVExtensionArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	command := C.GoString(input)
	args := parseArgsFromC(argv, argc)
	replyToSyncCall(handle(command, args, int(outputsize)), output, outputsize)
}

// handle serves the built-in commands and routes everything else to the
// dispatcher. limit is the caller's output buffer size.
func handle(command string, args []string, limit int) string {
	switch command {
	case ":TIMESTAMP:":
		return getTimestamp()
	case ":CHUNK:":
		part, err := Config.chunks.get(args)
		if err != nil {
			return formatDispatchResponse(command, nil, err)
		}
		return part
	}

	if Config.dispatcher == nil || !Config.dispatcher.HasHandler(command) {
		return formatDispatchResponse(command, nil, fmt.Errorf("no handler registered for %s", command))
	}

	event := dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	}
	result, err := Config.dispatcher.Dispatch(context.Background(), event)
	return Config.chunks.fit(formatDispatchResponse(command, result, err), limit)
}

// parseArgsFromC converts C argv array to Go string slice
func parseArgsFromC(argv **C.char, argc C.int) []string {
	var offset = unsafe.Sizeof(uintptr(0))
	var data []string
	for index := C.int(0); index < argc; index++ {
		data = append(data, C.GoString(*argv))
		argv = (**C.char)(unsafe.Pointer(uintptr(unsafe.Pointer(argv)) + offset))
	}
	return data
}

// replyToSyncCall copies response into the game's output buffer, truncating
// to outputsize.
func replyToSyncCall(response string, output *C.char, outputsize C.size_t) {
	result := C.CString(response)
	defer C.free(unsafe.Pointer(result))
	var size = C.strlen(result) + 1
	if size > outputsize {
		size = outputsize
	}
	C.memmove(unsafe.Pointer(output), unsafe.Pointer(result), size)
}

func getTimestamp() string {
	return fmt.Sprintf("%d", time.Now().UTC().UnixNano())
}
