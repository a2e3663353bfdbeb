// Package rules loads table rule overrides from a Lua script.
//
// A script either returns a table or assigns the global "rules":
//
//	return {
//	  mandatory_coup_at = 10,
//	  blockers = { captain = { "Captain", "Ambassador" } },
//	}
//
// Keys left out keep the value of the base rules.
package rules

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/Prsnt95/coup/internal/game"
)

// DefaultTimeout bounds how long a script may run.
const DefaultTimeout = time.Second

// LoadFile reads path and applies it on top of base.
func LoadFile(ctx context.Context, path string, base game.Rules) (game.Rules, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return game.Rules{}, fmt.Errorf("read rules script: %w", err)
	}
	r, err := Load(ctx, string(src), base)
	if err != nil {
		return game.Rules{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Load runs src in a sandbox without io or os access and applies the resulting table to base.
func Load(ctx context.Context, src string, base game.Rules) (game.Rules, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, unsafe := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(unsafe, lua.LNil)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	L.SetContext(ctx)

	top := L.GetTop()
	if err := L.DoString(src); err != nil {
		return game.Rules{}, fmt.Errorf("run rules script: %w", err)
	}
	var tbl *lua.LTable
	if L.GetTop() > top {
		t, ok := L.Get(-1).(*lua.LTable)
		if !ok {
			return game.Rules{}, fmt.Errorf("rules script returned %s, want a table", L.Get(-1).Type())
		}
		tbl = t
	} else if t, ok := L.GetGlobal("rules").(*lua.LTable); ok {
		tbl = t
	} else {
		return game.Rules{}, fmt.Errorf("rules script defines no rules table")
	}

	r, err := apply(tbl, base)
	if err != nil {
		return game.Rules{}, err
	}
	if err := r.Validate(); err != nil {
		return game.Rules{}, fmt.Errorf("invalid rules: %w", err)
	}
	return r, nil
}

func apply(tbl *lua.LTable, base game.Rules) (game.Rules, error) {
	r := copyRules(base)
	ints := map[string]*int{
		"starting_coins":    &r.StartingCoins,
		"income_gain":       &r.IncomeGain,
		"foreign_aid_gain":  &r.ForeignAidGain,
		"tax_gain":          &r.TaxGain,
		"steal_amount":      &r.StealAmount,
		"coup_cost":         &r.CoupCost,
		"assassin_cost":     &r.AssassinCost,
		"mandatory_coup_at": &r.MandatoryCoupAt,
		"exchange_draw":     &r.ExchangeDraw,
		"min_players":       &r.MinPlayers,
		"max_players":       &r.MaxPlayers,
		"log_capacity":      &r.LogCapacity,
	}

	var errs []string
	tbl.ForEach(func(k, v lua.LValue) {
		key := k.String()
		if key == "blockers" {
			if err := applyBlockers(v, &r); err != nil {
				errs = append(errs, err.Error())
			}
			return
		}
		dst, ok := ints[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown rule %q", key))
			return
		}
		n, err := toInt(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = n
	})
	if len(errs) > 0 {
		sort.Strings(errs)
		return game.Rules{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return r, nil
}

func applyBlockers(v lua.LValue, r *game.Rules) error {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return fmt.Errorf("blockers: want a table, got %s", v.Type())
	}
	var err error
	tbl.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		kind := game.ActionKind(strings.ReplaceAll(k.String(), "_", "-"))
		list, ok := v.(*lua.LTable)
		if !ok {
			err = fmt.Errorf("blockers.%s: want a list of characters", k)
			return
		}
		var chars []game.Character
		for i := 1; i <= list.Len(); i++ {
			c, perr := game.ParseCharacter(list.RawGetInt(i).String())
			if perr != nil || c == game.NoCharacter {
				err = fmt.Errorf("blockers.%s: %q is not a character", k, list.RawGetInt(i).String())
				return
			}
			chars = append(chars, c)
		}
		r.Blockers[kind] = chars
	})
	return err
}

func toInt(v lua.LValue) (int, error) {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("want a number, got %s", v.Type())
	}
	f := float64(n)
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("want a whole number, got %v", f)
	}
	return int(f), nil
}

// WithStealBlockers replaces the characters that may block a steal.
func WithStealBlockers(base game.Rules, names []string) (game.Rules, error) {
	r := copyRules(base)
	var chars []game.Character
	for _, name := range names {
		c, err := game.ParseCharacter(name)
		if err != nil {
			return game.Rules{}, err
		}
		if c != game.NoCharacter {
			chars = append(chars, c)
		}
	}
	r.Blockers[game.ActionCaptain] = chars
	return r, r.Validate()
}

func copyRules(base game.Rules) game.Rules {
	r := base
	r.Blockers = make(map[game.ActionKind][]game.Character, len(base.Blockers))
	for k, v := range base.Blockers {
		r.Blockers[k] = append([]game.Character(nil), v...)
	}
	return r
}
