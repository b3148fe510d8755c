package luacomp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// RunFunction is the global every script must define.
const RunFunction = "run"

// ErrNoRunFunction is returned by Compile for scripts without a run function.
var ErrNoRunFunction = errors.New("script does not define function " + RunFunction)

// Script describes one scripted implementation.
type Script struct {
	Name        string
	Abstract    string
	Description string
	Params      []schema.Param
	Source      string
	// Origin names the chunk in Lua error messages, usually file:line.
	Origin string
}

type compiled struct {
	name   string
	origin string
	proto  *lua.FunctionProto
}

// Compile parses and loads the script once, so syntax errors and a missing
// run function surface at load time, and returns the implementation that
// builds an Object per combination.
func Compile(s Script) (catalog.Implementation, error) {
	origin := s.Origin
	if origin == "" {
		origin = s.Name
	}

	chunk, err := parse.Parse(strings.NewReader(s.Source), origin)
	if err != nil {
		return catalog.Implementation{}, fmt.Errorf("parse script of %q: %w", s.Name, err)
	}
	proto, err := lua.Compile(chunk, origin)
	if err != nil {
		return catalog.Implementation{}, fmt.Errorf("compile script of %q: %w", s.Name, err)
	}
	c := &compiled{name: s.Name, origin: origin, proto: proto}

	L := newState(context.Background(), origin)
	defer L.Close()
	if err := c.load(L); err != nil {
		return catalog.Implementation{}, fmt.Errorf("load script of %q: %w", s.Name, err)
	}
	if L.GetGlobal(RunFunction).Type() != lua.LTFunction {
		return catalog.Implementation{}, fmt.Errorf("%q: %w", s.Name, ErrNoRunFunction)
	}

	return catalog.Implementation{
		Name:        s.Name,
		Abstract:    s.Abstract,
		Description: s.Description,
		Params:      s.Params,
		Factory: func(args *schema.Args) (any, error) {
			return &Object{script: c, args: args}, nil
		},
	}, nil
}

func (c *compiled) load(L *lua.LState) error {
	return protect(func() error {
		L.Push(L.NewFunctionFromProto(c.proto))
		return L.PCall(0, 0, nil)
	})
}

// Object is one materialized scripted instance.
type Object struct {
	script *compiled
	args   *schema.Args
}

// Name returns the implementation name of the script.
func (o *Object) Name() string {
	return o.script.name
}

// Run executes the script's run function for one combination and records
// what it returns.
func (o *Object) Run(ctx context.Context, sink *results.Sink, d display.Display) error {
	L := newState(ctx, o.script.origin)
	defer L.Close()

	L.SetGlobal("note", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		var args []any
		for i := 2; i <= L.GetTop(); i += 2 {
			args = append(args, L.ToStringMeta(L.Get(i)).String(), toGo(L.Get(i+1)))
		}
		d.Note(ctx, msg, args...)
		return 0
	}))

	if err := o.script.load(L); err != nil {
		return fmt.Errorf("%s: load: %w", o.script.name, err)
	}
	ret, err := callGlobal(L, RunFunction, o.inputs(L))
	if err != nil {
		return fmt.Errorf("%s: %w", o.script.name, err)
	}
	return o.record(sink, ret)
}

func (o *Object) record(sink *results.Sink, ret []lua.LValue) error {
	if len(ret) == 0 || ret[0] == lua.LNil {
		if len(ret) > 1 && ret[1] != lua.LNil {
			return fmt.Errorf("%s: %s", o.script.name, ret[1].String())
		}
		return nil
	}

	tbl, ok := ret[0].(*lua.LTable)
	if !ok {
		return fmt.Errorf("%s: run returned %s, want a table", o.script.name, ret[0].Type())
	}

	rows := []*lua.LTable{tbl}
	if _, isRow := tbl.RawGetInt(1).(*lua.LTable); isRow {
		rows = rows[:0]
		for i := 1; i <= tbl.Len(); i++ {
			row, isTable := tbl.RawGetInt(i).(*lua.LTable)
			if !isTable {
				return fmt.Errorf("%s: element %d of the returned sequence is %s, want a table", o.script.name, i, tbl.RawGetInt(i).Type())
			}
			rows = append(rows, row)
		}
	}

	for _, row := range rows {
		fields, err := fieldsOf(row)
		if err != nil {
			return fmt.Errorf("%s: %w", o.script.name, err)
		}
		if err := sink.Record(fields...); err != nil {
			return err
		}
	}
	return nil
}

// fieldsOf converts a result table into fields ordered by name.
func fieldsOf(tbl *lua.LTable) ([]results.Field, error) {
	var fields []results.Field
	var err error
	tbl.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		name, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("result key %s is not a string", k.String())
			return
		}
		var val results.Value
		switch lv := v.(type) {
		case lua.LNumber:
			val = results.Number(float64(lv))
		case lua.LString:
			val = results.String(string(lv))
		case lua.LBool:
			val = results.Bool(bool(lv))
		default:
			err = fmt.Errorf("result %q has unsupported type %s", string(name), v.Type())
			return
		}
		fields = append(fields, results.F(string(name), val))
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(fields, func(a, b results.Field) int { return strings.Compare(a.Name, b.Name) })
	return fields, nil
}
