// Package kafka wraps the segmentio kafka-go client with a connection
// that carries a pre-configured address list, dialer, transport and
// SASL mechanism, so publishers only need a topic name.
package kafka

import (
	"context"
	"crypto/tls"
	"math/rand"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode080101 = e.Code0801 + "01"
	ECode080102 = e.Code0801 + "02"
	ECode080103 = e.Code0801 + "03"
	ECode080104 = e.Code0801 + "04"
	ECode080105 = e.Code0801 + "05"
	ECode080106 = e.Code0801 + "06"
	ECode080107 = e.Code0801 + "07"
	ECode080108 = e.Code0801 + "08"
)

// ConnectionConfig for NewConn
type ConnectionConfig struct {
	AddressList   []string
	Context       context.Context
	NoTLS         bool
	SASLMechanism sasl.Mechanism
	Timeout       *time.Duration
	TLS           *tls.Config
}

// Connection a broker connection holding the dialer and transport
// every writer built from it shares
type Connection struct {
	Context context.Context

	addressList []string
	conn        *kafka.Conn
	dialer      *kafka.Dialer
	transport   *kafka.Transport
}

// NewConn dials a broker from the address list and returns a
// connection ready to hand out writers
func NewConn(conf ConnectionConfig) (c *Connection, err error) {
	if len(conf.AddressList) == 0 {
		return nil, e.N(ECode080101, "no address")
	}

	c = &Connection{
		addressList: conf.AddressList,
		Context:     conf.Context,
		dialer:      kafka.DefaultDialer,
		transport:   &kafka.Transport{},
	}
	if c.Context == nil {
		c.Context = context.TODO()
	}

	if conf.SASLMechanism != nil {
		c.dialer = &kafka.Dialer{
			DualStack:     true,
			Timeout:       10 * time.Second,
			SASLMechanism: conf.SASLMechanism,
		}
		c.transport = &kafka.Transport{
			SASL: conf.SASLMechanism,
		}

		if conf.Timeout != nil {
			c.dialer.Timeout = *conf.Timeout
		}

		// A broker speaking SASL is assumed to sit behind TLS unless
		// the caller opts out
		if conf.TLS != nil {
			c.dialer.TLS = conf.TLS
			c.transport.TLS = conf.TLS
		} else if !conf.NoTLS {
			c.dialer.TLS = &tls.Config{}
			c.transport.TLS = &tls.Config{}
		}
	}

	if err := c.connect(); err != nil {
		return c, e.W(err, ECode080102)
	}

	return c, nil
}

// connect dials a random address from the list, spreading fresh
// connections across the brokers
func (c *Connection) connect() (err error) {
	idx := rand.Intn(len(c.addressList))
	c.conn, err = c.dialer.DialContext(c.Context, "tcp", c.addressList[idx])
	if err != nil {
		return e.W(err, ECode080103)
	}

	return nil
}

// Close closes the broker connection
func (c *Connection) Close() (err error) {
	if c.conn == nil {
		return nil
	}

	if err := c.conn.Close(); err != nil {
		return e.W(err, ECode080104)
	}
	c.conn = nil

	return nil
}

// CreateTopics creates the topics on the cluster controller, which is
// the only broker that accepts topic creation
func (c *Connection) CreateTopics(tcList ...kafka.TopicConfig) (err error) {
	broker, err := c.conn.Controller()
	if err != nil {
		return e.W(err, ECode080105)
	}

	cc, err := c.dialer.DialContext(context.TODO(), "tcp",
		net.JoinHostPort(broker.Host, strconv.Itoa(broker.Port)))
	if err != nil {
		return e.W(err, ECode080106)
	}
	defer func() {
		if err := cc.Close(); err != nil {
			log.Warn().Err(err).Msgf("[%s]failed to close controller connection", ECode080107)
		}
	}()

	if err := cc.CreateTopics(tcList...); err != nil {
		return e.W(err, ECode080108)
	}

	return nil
}

// NewWriter returns a writer publishing to the topic over this
// connection's transport
func (c *Connection) NewWriter(topic string) (w *kafka.Writer) {
	return &kafka.Writer{
		Addr:      kafka.TCP(c.addressList...),
		Topic:     topic,
		Transport: c.transport,
	}
}
