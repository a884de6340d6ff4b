package wayland

import "fmt"

// Object ids are assigned from the client range (2..0xfeffffff). id 1 is
// always wl_display. The rest are fixed per-connection since this client
// only ever needs one instance of each global.
const (
	idDisplay  uint32 = 1
	idRegistry uint32 = 2
	idSyncA    uint32 = 3
	idSyncB    uint32 = 4

	idCompositor uint32 = 10
	idShm        uint32 = 11
	idSeat       uint32 = 12
	idDDManager  uint32 = 13
	idPSManager  uint32 = 14
	idWmBase     uint32 = 15

	idDataDevice uint32 = 20
	idPSDevice   uint32 = 21
	idDataSource uint32 = 22
	idPSSource   uint32 = 23

	idSurface     uint32 = 30
	idXdgSurface  uint32 = 31
	idXdgToplevel uint32 = 32
	idShmPool     uint32 = 33
	idBuffer      uint32 = 34
	idRegion      uint32 = 35

	// idOfferBase is the first id assigned to a dynamically announced
	// wl_data_offer/zwp_primary_selection_offer_v1 object; each new offer
	// bumps past the last one in use.
	idOfferBase uint32 = 100
)

// wl_display
const (
	opDisplaySync       uint16 = 0
	opDisplayGetReg     uint16 = 1
	evDisplayError      uint16 = 0
	evDisplayDeleteID   uint16 = 1
)

// wl_registry
const (
	opRegistryBind   uint16 = 0
	evRegistryGlobal uint16 = 0
)

// wl_callback
const evCallbackDone uint16 = 0

// wl_compositor
const (
	opCompositorCreateSurface uint16 = 0
	opCompositorCreateRegion  uint16 = 1
)

// wl_region
const opRegionDestroy uint16 = 0

// wl_shm_pool (additional)
const opShmPoolDestroy uint16 = 1

// wl_buffer
const opBufferDestroy uint16 = 0

// wl_surface
const (
	opSurfaceDestroy         uint16 = 0
	opSurfaceAttach          uint16 = 1
	opSurfaceDamage          uint16 = 2
	opSurfaceSetInputRegion  uint16 = 5
	opSurfaceCommit          uint16 = 6
)

// wl_shm
const opShmCreatePool uint16 = 0

// wl_shm_pool
const opShmPoolCreateBuffer uint16 = 0

// wl_seat
const evSeatCapabilities uint16 = 0

// wl_data_device_manager
const (
	opDDMCreateSource   uint16 = 0
	opDDMGetDataDevice  uint16 = 1
)

// wl_data_source
const (
	opDataSourceOffer uint16 = 0
	evDataSourceSend      uint16 = 1
	evDataSourceCancelled uint16 = 2
)

// wl_data_device
const (
	opDataDeviceSetSelection uint16 = 1
	evDataDeviceDataOffer    uint16 = 0
	evDataDeviceSelection    uint16 = 5
)

// wl_data_offer
const (
	opDataOfferReceive uint16 = 1
	evDataOfferOffer   uint16 = 0
)

// zwp_primary_selection_device_manager_v1
const (
	opPSManagerCreateSource uint16 = 0
	opPSManagerGetDevice    uint16 = 1
)

// zwp_primary_selection_source_v1
const (
	opPSSourceOffer       uint16 = 0
	evPSSourceSend        uint16 = 0
	evPSSourceCancelled   uint16 = 1
)

// zwp_primary_selection_device_v1
const (
	opPSDeviceSetSelection uint16 = 0
	evPSDeviceDataOffer    uint16 = 0
	evPSDeviceSelection    uint16 = 1
)

// zwp_primary_selection_offer_v1
const (
	opPSOfferReceive uint16 = 0
	evPSOfferOffer   uint16 = 0
)

// xdg_wm_base
const (
	opWmBaseGetXdgSurface uint16 = 2
	opWmBasePong          uint16 = 3
	evWmBasePing          uint16 = 0
)

// xdg_surface
const (
	opXdgSurfaceGetToplevel uint16 = 1
	opXdgSurfaceAckConfigure uint16 = 4
	evXdgSurfaceConfigure   uint16 = 0
)

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

func encodeInt32(v int32) []byte { return encodeUint32(uint32(v)) }

func encodeString(s string) []byte {
	data := append([]byte(s), 0)
	padded := (len(data) + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(len(data)))
	copy(buf[4:], data)
	return buf
}

func decodeUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("wayland: short uint32 field")
	}
	return le.Uint32(data[:4]), data[4:], nil
}

func decodeString(data []byte) (string, []byte, error) {
	length, rest, err := decodeUint32(data)
	if err != nil {
		return "", nil, err
	}
	if length == 0 {
		return "", rest, nil
	}
	padded := (int(length) + 3) &^ 3
	if len(rest) < padded {
		return "", nil, fmt.Errorf("wayland: short string payload")
	}
	s := string(rest[:length-1])
	return s, rest[padded:], nil
}

func concat(parts ...[]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
