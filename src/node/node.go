package node

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/chain"
	"github.com/mosaicnetworks/sourcechain/src/config"
	"github.com/mosaicnetworks/sourcechain/src/consistency"
	"github.com/mosaicnetworks/sourcechain/src/dht"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/net"
	"github.com/mosaicnetworks/sourcechain/src/node/state"
	"github.com/mosaicnetworks/sourcechain/src/peers"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/workflow"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// signalBuffer is the number of consistency signals kept for Signals
// readers before new ones are dropped.
const signalBuffer = 1024

//Node defines a sourcechain node
type Node struct {
	// The node is implemented as a state-machine. The embedded state Manager
	// object is used to manage the node's state.
	state.Manager

	conf   *config.Config
	logger *logrus.Entry

	agent *Agent

	chain *chain.Chain
	dht   *dht.Store
	dna   *entry.DNA

	peerSelector PeerSelector

	trans net.Transport
	netCh <-chan net.RPC

	proxy proxy.AppProxy

	wc        *workflow.Context
	scheduler *workflow.Scheduler
	signalCh  chan consistency.Signal

	// aspects waiting for a hold worker
	holdCh chan entry.EntryAspect

	promises *promises

	// genesis entries committed by Init, published once the node runs
	genesis []workflow.Committed

	ctx        context.Context
	cancel     context.CancelFunc
	workers    errgroup.Group
	startOnce  sync.Once
	// orders RPC goroutine launches with the shutdown state change
	launchLock sync.Mutex
	shutdownCh chan struct{}

	controlTimer *ControlTimer

	start         time.Time
	fetchRequests int64
	fetchErrors   int64
	published     int64
}

//NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config,
	agent *Agent,
	dna *entry.DNA,
	peerSet *peers.PeerSet,
	chain *chain.Chain,
	dhtStore *dht.Store,
	trans net.Transport,
	proxy proxy.AppProxy,
) *Node {
	logger := conf.Logger().WithFields(logrus.Fields{
		"this_id": shortID(agent.ID()),
		"moniker": agent.Moniker,
	})

	ctx, cancel := context.WithCancel(context.Background())

	holdWorkers := conf.HoldWorkers
	if holdWorkers <= 0 {
		holdWorkers = config.DefaultHoldWorkers
	}

	node := &Node{
		conf:         conf,
		logger:       logger,
		agent:        agent,
		chain:        chain,
		dht:          dhtStore,
		dna:          dna,
		peerSelector: NewRandomPeerSelector(peerSet, trans.AdvertiseAddr()),
		trans:        trans,
		netCh:        trans.Consumer(),
		proxy:        proxy,
		signalCh:     make(chan consistency.Signal, signalBuffer),
		holdCh:       make(chan entry.EntryAspect, 64*holdWorkers),
		promises:     newPromises(),
		ctx:          ctx,
		cancel:       cancel,
		shutdownCh:   make(chan struct{}),
		controlTimer: NewFixedControlTimer(),
	}

	node.wc = &workflow.Context{
		Key:         agent.Key,
		Chain:       chain,
		DHT:         dhtStore,
		DNA:         dna,
		Validator:   proxy,
		Network:     node,
		Consistency: consistency.NewModel(dna, node.signalCh, logger),
		Logger:      logger,
		HopTimeout:  conf.HopTimeout,
	}

	node.scheduler = workflow.NewScheduler(node.wc,
		conf.PendingWorkers,
		conf.PendingRate,
		conf.PendingMaxBackoff)

	return node
}

//Init intialises the node. An empty chain is started with the DNA and agent
//entries; they are published when the node runs.
func (n *Node) Init() error {
	genesis, err := workflow.Genesis(n.wc, n.agent.Moniker)
	if err != nil {
		return fmt.Errorf("genesis: %v", err)
	}
	n.genesis = genesis
	if len(genesis) > 0 {
		n.persistHead()
	}

	n.logger.WithFields(logrus.Fields{
		"chain_length": n.chain.Length(),
		"peers":        len(n.peerSelector.Order()),
	}).Debug("Init")

	n.start = time.Now()
	n.SetState(state.Running)
	return nil
}

//RunAsync calls Run as a separate thread. The background routines are
//started before it returns.
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	n.startRoutines()
	go n.Run()
}

//Run invokes the main loop of the node. It serves RPCs until Shutdown.
func (n *Node) Run() {
	n.startRoutines()

	for {
		select {
		case rpc := <-n.netCh:
			n.launchLock.Lock()
			launched := n.GetState() != state.Shutdown && n.GoFunc(func() {
				n.processRPC(rpc)
			})
			n.launchLock.Unlock()
			if !launched {
				rpc.Respond(nil, fmt.Errorf("node busy"))
			}
		case <-n.shutdownCh:
			return
		}
	}
}

// startRoutines launches the transport listener, the control timer, the hold
// workers and the pending loop, once. Shutdown goes through the same Once, so
// every worker is registered before it waits for them.
func (n *Node) startRoutines() {
	n.startOnce.Do(func() {
		go n.trans.Listen()

		//The ControlTimer paces the retries of pending validations. It is
		//reset once the previous retry round is over.
		go n.controlTimer.Run(n.pendingInterval())

		holdWorkers := n.conf.HoldWorkers
		if holdWorkers <= 0 {
			holdWorkers = config.DefaultHoldWorkers
		}
		for i := 0; i < holdWorkers; i++ {
			n.workers.Go(n.holdWorker)
		}
		n.workers.Go(n.pendingLoop)

		if len(n.genesis) > 0 {
			n.workers.Go(n.publishGenesis)
		}
	})
}

// publishGenesis publishes the entries committed by Init. Peers that are not
// reachable yet will find them through fetches later.
func (n *Node) publishGenesis() error {
	for _, c := range n.genesis {
		if err := workflow.PublishEntry(n.ctx, n.wc, c.Entry, c.Header); err != nil {
			n.logger.WithError(err).WithField("type", c.Entry.Type).Warn("Publishing genesis entry")
		}
	}
	return nil
}

func (n *Node) pendingInterval() time.Duration {
	if n.conf.PendingInterval <= 0 {
		return config.DefaultPendingInterval
	}
	return n.conf.PendingInterval
}

func (n *Node) holdWorker() error {
	for {
		select {
		case aspect := <-n.holdCh:
			if _, err := workflow.HoldAspect(n.ctx, n.wc, aspect); err != nil {
				n.logger.WithError(err).WithField("aspect", aspect.Address()).Debug("holdWorker")
			}
		case <-n.shutdownCh:
			return nil
		}
	}
}

func (n *Node) pendingLoop() error {
	for {
		select {
		case <-n.controlTimer.tickCh:
			if err := n.scheduler.Tick(n.ctx); err != nil && n.ctx.Err() == nil {
				n.logger.WithError(err).Error("Retrying pending validations")
			}
			n.resetTimer()
		case <-n.shutdownCh:
			return nil
		}
	}
}

func (n *Node) resetTimer() {
	select {
	case n.controlTimer.resetCh <- n.pendingInterval():
	case <-n.shutdownCh:
	}
}

// enqueue hands aspects to the hold workers. It blocks while the queue is
// full, unless the node shuts down.
func (n *Node) enqueue(aspects []entry.EntryAspect) {
	for _, a := range aspects {
		select {
		case n.holdCh <- a:
		case <-n.shutdownCh:
			return
		}
	}
}

//Shutdown the node
func (n *Node) Shutdown() {
	if n.GetState() != state.Shutdown {
		n.logger.Debug("Shutdown")

		n.launchLock.Lock()
		n.SetState(state.Shutdown)
		n.launchLock.Unlock()

		//Stop and wait for concurrent operations. A node that never ran
		//starts nothing after this.
		n.startOnce.Do(func() {})
		close(n.shutdownCh)
		n.cancel()

		n.WaitRoutines()

		n.controlTimer.Shutdown()

		n.workers.Wait()

		//transport and stores should only be closed once all concurrent
		//operations are finished otherwise they will fail on closed objects
		n.trans.Close()

		if err := n.dht.Close(); err != nil {
			n.logger.WithError(err).Error("Closing DHT store")
		}
		if err := n.chain.Store().CAS().Close(); err != nil {
			n.logger.WithError(err).Error("Closing chain store")
		}
	}
}

/*******************************************************************************
Authoring
*******************************************************************************/

//Commit authors an entry on the agent's chain and publishes it. It returns
//the address of the entry.
func (n *Node) Commit(ctx context.Context, e *entry.Entry, linkUpdateDelete cas.Address) (cas.Address, error) {
	if n.GetState() == state.Shutdown {
		return "", fmt.Errorf("node is shut down")
	}

	address, err := workflow.AuthorEntry(ctx, n.wc, e, linkUpdateDelete)
	if address.IsEmpty() {
		return address, err
	}

	n.persistHead()

	return address, err
}

// persistHead records the chain top so that a persistent chain can be
// reloaded.
func (n *Node) persistHead() {
	if !n.conf.Store {
		return
	}
	top := n.chain.Snapshot().TopAddress()
	if err := os.WriteFile(n.conf.HeadFile(), []byte(top), 0600); err != nil {
		n.logger.WithError(err).Error("Writing chain head")
	}
}

/*******************************************************************************
Network
*******************************************************************************/

//FetchEntry looks for an entry locally first, then asks the other peers one
//at a time. It returns nil, nil when nobody holds the entry.
func (n *Node) FetchEntry(ctx context.Context, address cas.Address) (*entry.Entry, error) {
	e, err := n.localEntry(address)
	if err != nil || e != nil {
		return e, err
	}

	var lastErr error
	notFound := false
	for _, p := range n.peerSelector.Order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := n.requestFetch(ctx, p.NetAddr, address)
		if err != nil {
			atomic.AddInt64(&n.fetchErrors, 1)
			n.logger.WithError(err).WithFields(logrus.Fields{
				"peer":    p.NetAddr,
				"address": address,
			}).Debug("requestFetch")
			lastErr = err
			continue
		}
		if !resp.Found || resp.Entry == nil {
			notFound = true
			continue
		}
		if resp.Entry.Address() != address {
			lastErr = fmt.Errorf("peer %s answered %s with another entry", p.NetAddr, address)
			continue
		}

		n.peerSelector.UpdateLast(p.NetAddr)
		return resp.Entry, nil
	}

	if notFound || lastErr == nil {
		return nil, nil
	}
	return nil, lastErr
}

// localEntry serves an entry from the DHT, or from the agent's own chain if
// the entry is public.
func (n *Node) localEntry(address cas.Address) (*entry.Entry, error) {
	e, ok, err := n.dht.Get(address)
	if err != nil {
		return nil, err
	}
	if ok {
		return e, nil
	}

	e, err = entry.Fetch(n.chain.Store().CAS(), address)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !n.dna.CanPublish(e.Type) {
		return nil, nil
	}
	return e, nil
}

//Publish queues the aspects for validation on this node and pushes them to
//every other peer. It only fails if no peer could be reached.
func (n *Node) Publish(ctx context.Context, address cas.Address, aspects []entry.EntryAspect) error {
	n.enqueue(aspects)
	atomic.AddInt64(&n.published, int64(len(aspects)))

	others := n.peerSelector.Order()
	if len(others) == 0 {
		return nil
	}

	var failed int32
	g, _ := errgroup.WithContext(ctx)
	for _, p := range others {
		p := p
		g.Go(func() error {
			_, err := n.requestPublish(p.NetAddr, address, aspects)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				n.logger.WithError(err).WithField("peer", p.NetAddr).Warn("Publishing aspects")
			}
			return nil
		})
	}
	g.Wait()

	if int(failed) == len(others) {
		return fmt.Errorf("could not publish %s to any of %d peers", address, len(others))
	}
	return nil
}

/*******************************************************************************
Getters
*******************************************************************************/

//Signals returns the consistency signals emitted by this node's workflows.
func (n *Node) Signals() <-chan consistency.Signal {
	return n.signalCh
}

//GetChain returns the agent's headers, newest first.
func (n *Node) GetChain() ([]entry.ChainHeader, error) {
	return n.chain.Headers()
}

//GetEntry returns an entry held locally, in the DHT or in the agent's chain.
func (n *Node) GetEntry(address cas.Address) (*entry.Entry, error) {
	e, ok, err := n.dht.Get(address)
	if err != nil || ok {
		return e, err
	}
	return entry.Fetch(n.chain.Store().CAS(), address)
}

//GetLinks returns the live links from base held in the DHT.
func (n *Node) GetLinks(base cas.Address, linkType, tag string) ([]dht.Link, error) {
	return n.dht.Links(base, linkType, tag)
}

//GetPeers returns the peers the node talks to.
func (n *Node) GetPeers() []*peers.Peer {
	return n.peerSelector.Peers().Peers
}

//ID returns the agent's public key
func (n *Node) ID() string {
	return n.agent.ID()
}

//GetStats returns stats
func (n *Node) GetStats() map[string]string {
	snap := n.dht.Snapshot()
	holding := 0
	for _, aspects := range snap.Holding {
		holding += len(aspects)
	}

	uptime := time.Duration(0)
	if !n.start.IsZero() {
		uptime = time.Since(n.start).Round(time.Second)
	}

	s := map[string]string{
		"chain_length":   strconv.Itoa(n.chain.Length()),
		"top":            string(n.chain.Snapshot().TopAddress()),
		"holding":        strconv.Itoa(holding),
		"pending":        strconv.Itoa(len(snap.Pending)),
		"num_peers":      strconv.Itoa(n.peerSelector.Peers().Len()),
		"fetch_requests": strconv.FormatInt(atomic.LoadInt64(&n.fetchRequests), 10),
		"fetch_errors":   strconv.FormatInt(atomic.LoadInt64(&n.fetchErrors), 10),
		"published":      strconv.FormatInt(atomic.LoadInt64(&n.published), 10),
		"open_requests":  strconv.Itoa(n.promises.len()),
		"uptime":         uptime.String(),
		"id":             n.agent.ID(),
		"state":          n.GetState().String(),
		"moniker":        n.agent.Moniker,
	}
	return s
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
