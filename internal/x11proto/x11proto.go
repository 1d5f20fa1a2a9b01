// Package x11proto is a small, hand-built protocol fixture exercising
// every feature of package xelb: a request with an opcode preamble and a
// fieldref-sized list, its paired reply, an event zero-padded to the minimum event
// length, an error, and a ClientMessage-style union. It plays the role
// a generated binding would play in a full X11 client library, scaled
// down to what the engine's tests need to drive.
package x11proto

import "github.com/emacs-exwm/xelb"

// Window is a CARD32 resource id, the same representation X11 gives
// every resource type.
type Window = uint32

// CreateWindowDescriptor is the CreateWindow request: a fixed header
// followed by a value-mask/value-list pair, the canonical shape of
// nearly every X11 request that takes optional attributes. value-list's
// length isn't itself on the wire — callers compute it from value-mask
// (one CARD32 per set bit) and stash it in value-list-len before
// marshalling or unmarshalling.
//
//	1     CARD8     opcode (set by the engine)
//	1     CARD8     depth
//	2                request length (omitted, spec §4.C)
//	4     WINDOW    wid
//	4     WINDOW    parent
//	2     INT16     x
//	2     INT16     y
//	2     CARD16    width
//	2     CARD16    height
//	2     CARD16    border-width
//	2     CARD16    class
//	4     CARD32    visual
//	4     CARD32    value-mask
//	4n    CARD32[]  value-list, n = popcount(value-mask)
var CreateWindowDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:   "CreateWindow",
	Class:  xelb.ClassRequest,
	Opcode: 1,
	Fields: []xelb.Field{
		xelb.U1("depth"),
		xelb.U4("wid"),
		xelb.U4("parent"),
		xelb.I2("x"),
		xelb.I2("y"),
		xelb.U2("width"),
		xelb.U2("height"),
		xelb.U2("border-width"),
		xelb.U2("class"),
		xelb.U4("visual"),
		xelb.U4("value-mask"),
		xelb.Ignore("value-list-len"),
		xelb.List("value-list", xelb.KindU4, xelb.FieldRef("value-list-len")),
	},
})

// CreateWindowReplyDescriptor demonstrates a reply: the engine writes
// the 1-byte reply marker, and the body declared here is 24 bytes of
// padding. The reply preamble carries no sequence number.
var CreateWindowReplyDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:  "CreateWindowReply",
	Class: xelb.ClassReply,
	Fields: []xelb.Field{
		xelb.Pad(24),
	},
})

// ConfigureNotifyDescriptor is a core (non-generic) event, zero-padded
// by the engine to the 32-byte event minimum.
//
//	1     CARD8   code (set by the engine)
//	1                unused
//	2     CARD16  sequence number (set by the engine)
//	4     WINDOW  event
//	4     WINDOW  window
//	4     WINDOW  above-sibling
//	2     INT16   x
//	2     INT16   y
//	2     CARD16  width
//	2     CARD16  height
//	2     CARD16  border-width
//	1     BOOL    override-redirect
var ConfigureNotifyDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:  "ConfigureNotify",
	Class: xelb.ClassEvent,
	Fields: []xelb.Field{
		xelb.U4("event"),
		xelb.U4("window"),
		xelb.U4("above-sibling"),
		xelb.I2("x"),
		xelb.I2("y"),
		xelb.U2("width"),
		xelb.U2("height"),
		xelb.U2("border-width"),
		xelb.U1("override-redirect"),
	},
})

// WindowErrorDescriptor is the WINDOW error: the shared code+sequence
// preamble plus the bad-resource-id, minor-opcode and major-opcode
// fields.
var WindowErrorDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:  "WindowError",
	Class: xelb.ClassError,
	Fields: []xelb.Field{
		xelb.U4("bad-resource-id"),
		xelb.U2("minor-opcode"),
		xelb.U1("major-opcode"),
	},
})

// ConfigureWindowValuesDescriptor demonstrates a switch field: which of
// x/y/width/height is present on the wire depends on which bits of a
// value-mask are set, mirroring ConfigureWindow's request body. A
// 1-byte stopping-point field forces a pad-align gap before the switch
// so the fixture also exercises pad-align in a plain (non-request)
// struct.
var ConfigureWindowValuesDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:  "ConfigureWindowValues",
	Class: xelb.ClassStruct,
	Fields: []xelb.Field{
		xelb.U1("stacking-mode"),
		xelb.PadAlign(4),
		xelb.Switch("values", xelb.FieldRef("value-mask"), []xelb.Field{
			xelb.I2("x"),
			xelb.I2("y"),
			xelb.U2("width"),
			xelb.U2("height"),
		}, []xelb.SwitchCase{
			{Cond: xelb.Mask(0x01), FieldNames: []string{"x"}},
			{Cond: xelb.Mask(0x02), FieldNames: []string{"y"}},
			{Cond: xelb.Mask(0x04), FieldNames: []string{"width"}},
			{Cond: xelb.Mask(0x08), FieldNames: []string{"height"}},
		}),
	},
})

// XkbStateNotifyDescriptor is a generic event: it carries an
// extension-private evtype alongside the shared extension id the
// engine threads through from the EventNumberFunc.
var XkbStateNotifyDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:  "XkbStateNotify",
	Class: xelb.ClassGenericEvent,
	Fields: []xelb.Field{
		xelb.U2("extension"),
		xelb.U2("evtype"),
		xelb.U1("xkbType"),
		xelb.U1("deviceID"),
	},
})

// ClientMessageDataDescriptor is a ClientMessage event's 20-byte "data"
// union: the same 20 bytes interpreted as twenty CARD8s, ten CARD16s,
// or five CARD32s depending on which slot the caller bound.
var ClientMessageDataDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:         "ClientMessageData",
	Class:        xelb.ClassUnion,
	DeclaredSize: xelb.Lit(20),
	Fields: []xelb.Field{
		xelb.List("data8", xelb.KindU1, xelb.Lit(20)),
		xelb.List("data16", xelb.KindU2, xelb.Lit(10)),
		xelb.List("data32", xelb.KindU4, xelb.Lit(5)),
	},
})

// ClientMessageDescriptor is the real ClientMessage core event: the
// shared code+sequence preamble, a format tag, the target window, and
// the 20-byte data union nested as an ordinary field — ClientMessageData
// is never marshalled/unmarshalled standalone in a real binding.
//
//	1     CARD8                code (set by the engine)
//	1                          unused (set by the engine)
//	2     CARD16               sequence number (set by the engine)
//	1     CARD8                format
//	4     WINDOW               window
//	20    ClientMessageData    data
var ClientMessageDescriptor = xelb.RegisterStruct(&xelb.Descriptor{
	Name:  "ClientMessage",
	Class: xelb.ClassEvent,
	Fields: []xelb.Field{
		xelb.U1("format"),
		xelb.U4("window"),
		xelb.Nested("data", ClientMessageDataDescriptor),
	},
})
