package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
)

// Engine wraps a single gopher-lua VM for scenario scripts.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	dir string
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every hook script under
// scriptsDir/hooks. A missing directory is not an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, dir: scriptsDir, log: log}
	if err := e.loadDir(filepath.Join(scriptsDir, "hooks")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load hook scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine's VM. Used by tests and the host to
// install hooks inline.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// LoadWaveScript runs a wave script that returns
// {gates = {id = {x=, y=}}, waves = {{time=, gates={...}, sets={...}}}}.
// name is resolved against the scripts dir.
func (e *Engine) LoadWaveScript(name string) (*data.WaveScript, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dir, name)
	}
	top := e.vm.GetTop()
	if err := e.vm.DoFile(path); err != nil {
		return nil, fmt.Errorf("run wave script %s: %w", path, err)
	}
	defer e.vm.SetTop(top)
	if e.vm.GetTop() == top {
		return nil, fmt.Errorf("wave script %s: no return value", path)
	}
	root, ok := e.vm.Get(-1).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("wave script %s: returned non-table", path)
	}
	return parseWaveTable(root)
}

// ParseWaveScript is LoadWaveScript for an inline chunk.
func (e *Engine) ParseWaveScript(src string) (*data.WaveScript, error) {
	top := e.vm.GetTop()
	if err := e.vm.DoString(src); err != nil {
		return nil, fmt.Errorf("run wave script: %w", err)
	}
	defer e.vm.SetTop(top)
	root, ok := e.vm.Get(-1).(*lua.LTable)
	if !ok || e.vm.GetTop() == top {
		return nil, fmt.Errorf("wave script: returned non-table")
	}
	return parseWaveTable(root)
}

func parseWaveTable(root *lua.LTable) (*data.WaveScript, error) {
	ws := &data.WaveScript{Tiles: make(map[string]data.GateDef)}

	if gates, ok := root.RawGetString("gates").(*lua.LTable); ok {
		gates.ForEach(func(k, v lua.LValue) {
			gt, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			id := k.String()
			ws.Tiles[id] = data.GateDef{
				ID:     id,
				Pos:    geom.V(luaFloat(gt, "x"), luaFloat(gt, "y")),
				Radius: luaFloat(gt, "radius"),
			}
		})
	}

	waves, ok := root.RawGetString("waves").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("wave script: missing waves table")
	}
	for i := 1; i <= waves.Len(); i++ {
		wt, ok := waves.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("wave script: wave %d is not a table", i)
		}
		w := data.WaveDef{Time: luaFloat(wt, "time")}
		if gl, ok := wt.RawGetString("gates").(*lua.LTable); ok {
			for j := 1; j <= gl.Len(); j++ {
				w.Gates = append(w.Gates, gl.RawGetInt(j).String())
			}
		}
		if sl, ok := wt.RawGetString("sets").(*lua.LTable); ok {
			for j := 1; j <= sl.Len(); j++ {
				st, ok := sl.RawGetInt(j).(*lua.LTable)
				if !ok {
					continue
				}
				w.Sets = append(w.Sets, parseSet(st))
			}
		}
		ws.Waves = append(ws.Waves, w)
	}
	return ws, nil
}

func parseSet(st *lua.LTable) data.SpawnSet {
	set := data.SpawnSet{
		Enemy:    luaString(st, "enemy"),
		Count:    int(luaFloat(st, "count")),
		Interval: luaFloat(st, "interval"),
		Delay:    luaFloat(st, "delay"),
	}
	if vl, ok := st.RawGetString("variants").(*lua.LTable); ok {
		for k := 1; k <= vl.Len(); k++ {
			vt, ok := vl.RawGetInt(k).(*lua.LTable)
			if !ok {
				continue
			}
			set.Variants = append(set.Variants, data.Variant{
				Enemy:  luaString(vt, "enemy"),
				Weight: luaFloat(vt, "weight"),
				Pity:   luaFloat(vt, "pity"),
			})
		}
	}
	return set
}

func luaFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

func luaString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// RespawnContext holds pre-packed data for the respawn delay hook.
type RespawnContext struct {
	Base           float64
	OverkillRatio  float64
	OverkillFactor float64
	Job            string
	Deaths         int // allies lost so far this scenario
}

// CalcRespawnDelay calls the optional Lua calc_respawn_delay hook.
// ok is false when the hook is absent or fails; the caller keeps its
// built-in formula then.
func (e *Engine) CalcRespawnDelay(ctx RespawnContext) (delay float64, ok bool) {
	fn := e.vm.GetGlobal("calc_respawn_delay")
	if fn == lua.LNil {
		return 0, false
	}

	t := e.vm.NewTable()
	t.RawSetString("base", lua.LNumber(ctx.Base))
	t.RawSetString("overkill_ratio", lua.LNumber(ctx.OverkillRatio))
	t.RawSetString("overkill_factor", lua.LNumber(ctx.OverkillFactor))
	t.RawSetString("job", lua.LString(ctx.Job))
	t.RawSetString("deaths", lua.LNumber(ctx.Deaths))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_respawn_delay error", zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, isNum := result.(lua.LNumber)
	if !isNum || n < 0 {
		e.log.Error("lua calc_respawn_delay returned invalid value", zap.String("value", result.String()))
		return 0, false
	}
	return float64(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
