package luacomp

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	lua "github.com/yuin/gopher-lua"
)

// unsafeGlobals are removed from every state; they load code from outside
// the script.
var unsafeGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
}

// newState creates a sandboxed Lua state bound to ctx. Cancelling ctx stops
// a running script.
func newState(ctx context.Context, chunk string) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	logger := ctxlog.FromContext(ctx)
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info("Lua print.", "chunk", chunk, "text", strings.Join(parts, "\t"))
		return 0
	}))

	L.SetContext(ctx)
	return L
}

// protect runs fn and turns a Go panic inside the interpreter into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// callGlobal calls the named global function and returns all its results.
func callGlobal(L *lua.LState, name string, args ...lua.LValue) ([]lua.LValue, error) {
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", name, fn.Type())
	}

	top := L.GetTop()
	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if err := protect(func() error { return L.PCall(len(args), lua.MultRet, nil) }); err != nil {
		return nil, err
	}

	n := L.GetTop() - top
	out := make([]lua.LValue, n)
	for i := range n {
		out[i] = L.Get(top + i + 1)
	}
	L.Pop(n)
	return out, nil
}
