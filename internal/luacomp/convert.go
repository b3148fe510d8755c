package luacomp

import (
	"github.com/specialistvlad/gridsweep/internal/results"
	lua "github.com/yuin/gopher-lua"
	"github.com/zclconf/go-cty/cty"
)

// inputs builds the table passed to run.
func (o *Object) inputs(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	for _, name := range o.args.Names() {
		tbl.RawSetString(name, toLua(L, o.args.Object(name)))
	}
	return tbl
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case cty.Value:
		rv, err := results.FromCty(val)
		if err != nil {
			return lua.LNil
		}
		return valueToLua(rv)
	case *Object:
		return val.inputs(L)
	case []any:
		tbl := L.CreateTable(len(val), 0)
		for _, item := range val {
			tbl.Append(toLua(L, item))
		}
		return tbl
	default:
		ud := L.NewUserData()
		ud.Value = val
		return ud
	}
}

func valueToLua(v results.Value) lua.LValue {
	switch v.Kind() {
	case results.KindNumber, results.KindInt:
		return lua.LNumber(v.Float())
	case results.KindString:
		return lua.LString(v.Str())
	case results.KindBool:
		return lua.LBool(v.Bool())
	default:
		return lua.LNil
	}
}

func toGo(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	default:
		return lv.String()
	}
}
