package node

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/config"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/net"
	"github.com/sirupsen/logrus"
)

// requestFetch asks one peer for an entry. The transport call and the hop
// timeout race on a promise; a response arriving after the timeout is
// dropped.
func (n *Node) requestFetch(ctx context.Context, target string, address cas.Address) (net.FetchResponse, error) {
	atomic.AddInt64(&n.fetchRequests, 1)

	promise := NewFetchPromise()
	n.promises.add(promise)
	defer n.promises.remove(promise.RequestID)

	args := net.FetchRequest{
		FromAddr:  n.trans.AdvertiseAddr(),
		RequestID: promise.RequestID,
		Address:   address,
	}

	go func() {
		var out net.FetchResponse
		err := n.trans.Fetch(target, &args, &out)
		if !promise.Resolve(fetchResult{resp: out, err: err}) {
			n.logger.WithFields(logrus.Fields{
				"peer":       target,
				"request_id": promise.RequestID,
			}).Debug("Late fetch response ignored")
		}
	}()

	timeout := n.conf.HopTimeout
	if timeout <= 0 {
		timeout = config.DefaultHopTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		promise.Resolve(fetchResult{
			err: cm.NewCoreErr(cm.Timeout, string(address),
				fmt.Sprintf("peer %s did not answer within %s", target, timeout)),
		})
	})
	defer timer.Stop()

	var res fetchResult
	select {
	case res = <-promise.respCh:
	case <-ctx.Done():
		promise.Resolve(fetchResult{err: ctx.Err()})
		return net.FetchResponse{}, ctx.Err()
	}

	if res.err != nil {
		return net.FetchResponse{}, res.err
	}
	if res.resp.RequestID != promise.RequestID {
		return net.FetchResponse{}, cm.NewCoreErr(cm.IoError, string(address),
			fmt.Sprintf("peer %s answered request %s instead of %s", target, res.resp.RequestID, promise.RequestID))
	}
	return res.resp, nil
}

func (n *Node) requestPublish(target string, address cas.Address, aspects []entry.EntryAspect) (net.PublishResponse, error) {
	args := net.PublishRequest{
		FromAddr:     n.trans.AdvertiseAddr(),
		EntryAddress: address,
		Aspects:      aspects,
	}

	var out net.PublishResponse

	err := n.trans.Publish(target, &args, &out)

	return out, err
}

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.FetchRequest:
		n.processFetchRequest(rpc, cmd)
	case *net.PublishRequest:
		n.processPublishRequest(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		rpc.Respond(nil, fmt.Errorf("unexpected command"))
	}
}

func (n *Node) processFetchRequest(rpc net.RPC, cmd *net.FetchRequest) {
	n.logger.WithFields(logrus.Fields{
		"from":    cmd.FromAddr,
		"address": cmd.Address,
	}).Debug("process FetchRequest")

	resp := &net.FetchResponse{
		FromAddr:  n.trans.AdvertiseAddr(),
		RequestID: cmd.RequestID,
	}

	e, err := n.localEntry(cmd.Address)
	if err != nil {
		n.logger.WithError(err).Error("Serving FetchRequest")
		rpc.Respond(resp, err)
		return
	}

	if e != nil {
		resp.Found = true
		resp.Entry = e
	}

	rpc.Respond(resp, nil)
}

func (n *Node) processPublishRequest(rpc net.RPC, cmd *net.PublishRequest) {
	n.logger.WithFields(logrus.Fields{
		"from":    cmd.FromAddr,
		"address": cmd.EntryAddress,
		"aspects": len(cmd.Aspects),
	}).Debug("process PublishRequest")

	rpc.Respond(&net.PublishResponse{
		FromAddr: n.trans.AdvertiseAddr(),
		Accepted: len(cmd.Aspects),
	}, nil)

	n.enqueue(cmd.Aspects)
}

func isNotFound(err error) bool {
	return cm.IsStore(err, cm.KeyNotFound)
}
