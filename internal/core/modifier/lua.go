package modifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/Shopify/go-lua"
)

// LuaEntryPoint is the global function a Lua modifier script must define.
const LuaEntryPoint = "modify"

type luaScript struct {
	mu    sync.Mutex
	state *lua.State
}

// FromLua loads a Lua script defining modify(n) and returns it as a modifier.
//
//	function modify(n)
//	  if n == 1 then return 1 end
//	  return n + 2
//	end
func FromLua(source string) (*Modifier, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.DoString(state, source); err != nil {
		return nil, invalidModifier("load lua: "+err.Error(), err)
	}
	state.Global(LuaEntryPoint)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, invalidModifier("lua script must define function "+LuaEntryPoint+"(n)", nil)
	}

	sum := sha256.Sum256([]byte(source))
	script := &luaScript{state: state}
	return newProbed("lua:"+hex.EncodeToString(sum[:8]), script.call)
}

// FromLuaFile reads a Lua modifier script from disk.
func FromLuaFile(path string) (*Modifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lua modifier %s: %w", path, err)
	}
	return FromLua(string(data))
}

func (s *luaScript) call(base int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Global(LuaEntryPoint)
	s.state.PushInteger(base)
	if err := s.state.ProtectedCall(1, 1, 0); err != nil {
		// the error object replaces the result on the stack
		s.state.Pop(1)
		return 0, fmt.Errorf("run lua: %w", err)
	}
	defer s.state.Pop(1)

	if s.state.TypeOf(-1) != lua.TypeNumber {
		return 0, fmt.Errorf("%s(%d) returned %s, want integer", LuaEntryPoint, base, lua.TypeNameOf(s.state, -1))
	}
	value, _ := s.state.ToNumber(-1)
	if value != math.Trunc(value) {
		return 0, fmt.Errorf("%s(%d) returned %v, want integer", LuaEntryPoint, base, value)
	}
	return int(value), nil
}
