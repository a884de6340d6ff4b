package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/google/uuid"
)

// atomSet holds every interned atom this backend needs. selProp and
// clipProp are randomized per-connection (ZES_SEL_<uuid> / ZES_CLIP_<uuid>)
// so that two daemons racing on the same X server never clobber each
// other's property while a ConvertSelection round-trip is in flight —
// resolving spec.md's open question about concurrent-daemon atom collision.
type atomSet struct {
	primary   xproto.Atom
	clipboard xproto.Atom
	utf8      xproto.Atom
	targets   xproto.Atom
	selProp   xproto.Atom
	clipProp  xproto.Atom
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	get := func(name string) (xproto.Atom, error) {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return 0, fmt.Errorf("x11: intern atom %s: %w", name, err)
		}
		return reply.Atom, nil
	}

	primary, err := get("PRIMARY")
	if err != nil {
		return atomSet{}, err
	}
	clipboard, err := get("CLIPBOARD")
	if err != nil {
		return atomSet{}, err
	}
	utf8, err := get("UTF8_STRING")
	if err != nil {
		return atomSet{}, err
	}
	targets, err := get("TARGETS")
	if err != nil {
		return atomSet{}, err
	}
	selProp, err := get(fmt.Sprintf("ZES_SEL_%s", uuid.NewString()))
	if err != nil {
		return atomSet{}, err
	}
	clipProp, err := get(fmt.Sprintf("ZES_CLIP_%s", uuid.NewString()))
	if err != nil {
		return atomSet{}, err
	}

	return atomSet{
		primary:   primary,
		clipboard: clipboard,
		utf8:      utf8,
		targets:   targets,
		selProp:   selProp,
		clipProp:  clipProp,
	}, nil
}
