package modbusclient

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/goburrow/modbus"
	"github.com/sirupsen/logrus"
)

// MaxWriteRegisters is the largest block a single write multiple registers
// request may carry.
const MaxWriteRegisters = 123

// MaxReadRegisters is the largest block a single read holding registers
// request may return.
const MaxReadRegisters = 125

type Client interface {
	ReadInputRegister(address uint16) (int, error)
	ReadHoldingRegister16(address uint16) (int, error)
	ReadHoldingRegisters(address, quantity uint16) ([]uint16, error)
	WriteSingleRegister(address, value uint16) error
	WriteRegisters(address uint16, values []uint16) error
}

type client struct {
	client modbus.Client
	close  func() error
}

func New(c modbus.Client, close func() error) *client {
	return &client{
		client: c,
		close:  close,
	}
}

// NewTCP connects to a Modbus TCP gateway.
func NewTCP(address string, slaveID byte) (*client, error) {
	handler := modbus.NewTCPClientHandler(address)
	handler.SlaveId = slaveID
	err := handler.Connect()
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", address, err)
	}
	return New(modbus.NewClient(handler), handler.Close), nil
}

func (c *client) Close() error {
	return c.close()
}

func (c *client) closeIfNeeded(e error) {
	if e == nil {
		return
	}

	if errors.Is(e, syscall.EPIPE) {
		logrus.Warn("modbusclient: reconnect due to broken pipe")
		err := c.close()
		if err != nil {
			logrus.Errorf("modbusclient: error closing client: %s", err)
		}
	}

	if errors.Is(e, os.ErrDeadlineExceeded) {
		logrus.Warn("modbusclient: reconnect due to i/o timeout")
		err := c.close()
		if err != nil {
			logrus.Errorf("modbusclient: error closing client: %s", err)
		}
	}
}

func (c *client) ReadInputRegister(address uint16) (int, error) {
	b, err := c.client.ReadInputRegisters(address, 1)
	if err != nil {
		c.closeIfNeeded(err)
		err = fmt.Errorf("error reading address %d: %w", address, err)
	}
	return Decode(b), err
}

func (c *client) ReadHoldingRegister16(address uint16) (int, error) {
	b, err := c.client.ReadHoldingRegisters(address, 1)
	if err != nil {
		c.closeIfNeeded(err)
		err = fmt.Errorf("error reading address %d: %w", address, err)
	}
	return Decode(b), err
}

// ReadHoldingRegisters reads quantity registers starting at address, split
// into as many requests as needed.
func (c *client) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	out := make([]uint16, 0, quantity)
	for quantity > 0 {
		n := min(quantity, MaxReadRegisters)
		b, err := c.client.ReadHoldingRegisters(address, n)
		if err != nil {
			c.closeIfNeeded(err)
			return nil, fmt.Errorf("error reading %d registers from address %d: %w", n, address, err)
		}
		out = append(out, Words(b)...)
		address += n
		quantity -= n
	}
	return out, nil
}

func (c *client) WriteSingleRegister(address, value uint16) error {
	_, err := c.client.WriteSingleRegister(address, value)
	if err != nil {
		c.closeIfNeeded(err)
		err = fmt.Errorf("error writing address %d value %d error: %w", address, value, err)
	}
	return err
}

// WriteRegisters writes values starting at address in blocks of at most
// MaxWriteRegisters.
func (c *client) WriteRegisters(address uint16, values []uint16) error {
	for len(values) > 0 {
		n := min(len(values), MaxWriteRegisters)
		_, err := c.client.WriteMultipleRegisters(address, uint16(n), Bytes(values[:n]))
		if err != nil {
			c.closeIfNeeded(err)
			return fmt.Errorf("error writing %d registers to address %d: %w", n, address, err)
		}
		address += uint16(n)
		values = values[n:]
	}
	return nil
}

// Decode High byte first high word first (big endian)
func Decode(data []byte) int {

	switch len(data) {
	case 1:
		var i int8
		binary.Read(bytes.NewBuffer(data), binary.BigEndian, &i)
		return int(i)
	case 2:
		var i int16
		binary.Read(bytes.NewBuffer(data), binary.BigEndian, &i)
		return int(i)
	case 4:
		var i int32
		binary.Read(bytes.NewBuffer(data), binary.BigEndian, &i)
		return int(i)
	case 8:
		var i int64
		binary.Read(bytes.NewBuffer(data), binary.BigEndian, &i)
		return int(i)
	}

	return 0
}

// Words splits big endian register data into 16 bit words.
func Words(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return out
}

func Bytes(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(out[i*2:], w)
	}
	return out
}
