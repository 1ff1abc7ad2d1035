package protocol

// Version is the protocol version byte carried in every frame header.
const Version uint8 = 10

// Command is the fixed command word; the server keys behavior off opcodes.
const Command uint16 = 0

// Opcodes observed on the wire.
const (
	OpPing          uint16 = 1
	OpHandshake     uint16 = 6
	OpAuthStart     uint16 = 17
	OpAuthCheckCode uint16 = 18
	OpAuthRegister  uint16 = 23
)
