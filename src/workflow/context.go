package workflow

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/chain"
	"github.com/mosaicnetworks/sourcechain/src/consistency"
	"github.com/mosaicnetworks/sourcechain/src/dht"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

// Network is what the workflows need from the network: fetching entries
// by address and publishing aspects.
type Network interface {
	validation.Fetcher
	Publish(ctx context.Context, address cas.Address, aspects []entry.EntryAspect) error
}

// Context carries everything a workflow touches. It is shared by every
// workflow of a node.
type Context struct {
	Key         *ecdsa.PrivateKey
	Chain       *chain.Chain
	DHT         *dht.Store
	DNA         *entry.DNA
	Validator   proxy.AppProxy
	Network     Network
	Consistency *consistency.Model
	Logger      *logrus.Entry
	HopTimeout  time.Duration

	// serializes header pre-flight and commit
	authorLock sync.Mutex
}

// ChainStore ...
func (c *Context) ChainStore() *chain.Store {
	return c.Chain.Store()
}

func (c *Context) hopTimeout() time.Duration {
	if c.HopTimeout <= 0 {
		return validation.DefaultHopTimeout
	}
	return c.HopTimeout
}

func (c *Context) logger() *logrus.Entry {
	if c.Logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		c.Logger = logrus.NewEntry(log)
	}
	return c.Logger
}

func (c *Context) observe(a consistency.Action) {
	if c.Consistency != nil {
		c.Consistency.Process(a)
	}
}
