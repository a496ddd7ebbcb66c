package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/consistency"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

// AuthorEntry validates e against the local chain, commits it and publishes
// its aspects. Nothing is committed unless validation passes. A deletion
// entry with no linkUpdateDelete links to the entry it deletes; any other
// linkUpdateDelete is a rejection.
//
// Once committed, the entry stays committed: a publish failure is returned
// together with the entry address.
func AuthorEntry(ctx context.Context, wc *Context, e *entry.Entry, linkUpdateDelete cas.Address) (cas.Address, error) {
	address, err := authorEntry(ctx, wc, e, linkUpdateDelete)
	switch {
	case err == nil:
		authorEntryTotal.WithLabelValues(resultOk).Inc()
	case cm.Is(err, cm.ValidationFailed):
		authorEntryTotal.WithLabelValues(resultRejected).Inc()
	default:
		authorEntryTotal.WithLabelValues(resultError).Inc()
	}
	return address, err
}

func authorEntry(ctx context.Context, wc *Context, e *entry.Entry, linkUpdateDelete cas.Address) (cas.Address, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	if e.Type == entry.DeletionType {
		switch {
		case linkUpdateDelete.IsEmpty():
			linkUpdateDelete = e.Deletion.Deleted
		case linkUpdateDelete != e.Deletion.Deleted:
			return "", cm.NewCoreErr(cm.ValidationFailed, string(e.Address()),
				fmt.Sprintf("deletion of %s cannot replace %s", e.Deletion.Deleted, linkUpdateDelete))
		}
	}

	address := e.Address()
	logger := wc.logger().WithFields(logrus.Fields{
		"address":    address,
		"entry_type": e.Type,
	})

	if err := checkLinkDependencies(ctx, wc, e); err != nil {
		logger.WithError(err).Debug("Link dependency check failed")
		return "", err
	}

	header, err := commitEntry(wc, e, linkUpdateDelete)
	if err != nil {
		logger.WithError(err).Debug("Entry not committed")
		return "", err
	}

	if err := PublishEntry(ctx, wc, e, header); err != nil {
		return address, err
	}

	return address, nil
}

// commitEntry builds the next header, validates the entry against the local
// chain and commits both.
func commitEntry(wc *Context, e *entry.Entry, linkUpdateDelete cas.Address) (entry.ChainHeader, error) {
	wc.authorLock.Lock()
	defer wc.authorLock.Unlock()

	header, err := wc.Chain.NewHeader(e, wc.Key, linkUpdateDelete, time.Now().UnixNano())
	if err != nil {
		return entry.ChainHeader{}, err
	}

	if err := validateLocal(wc, e, header); err != nil {
		return entry.ChainHeader{}, err
	}

	if err := wc.Chain.Commit(e, header); err != nil {
		wc.logger().WithError(err).WithField("address", header.EntryAddress).Error("Commit failed")
		return entry.ChainHeader{}, err
	}

	wc.logger().WithFields(logrus.Fields{
		"address": header.EntryAddress,
		"header":  header.Address(),
	}).Debug("Committed")

	wc.observe(consistency.Commit{Entry: e, Header: header})

	return header, nil
}

// PublishEntry publishes the aspects of a committed entry, when its type is
// public, and then its header.
func PublishEntry(ctx context.Context, wc *Context, e *entry.Entry, header entry.ChainHeader) error {
	address := header.EntryAddress
	logger := wc.logger().WithFields(logrus.Fields{
		"address":    address,
		"entry_type": e.Type,
	})

	if wc.DNA.CanPublish(e.Type) {
		if err := wc.Network.Publish(ctx, address, entry.PublishAspects(e, header)); err != nil {
			logger.WithError(err).Error("Publishing aspects failed")
			return err
		}
		wc.observe(consistency.Publish{Address: address})
	}

	if err := wc.Network.Publish(ctx, address, []entry.EntryAspect{entry.NewHeaderAspect(header)}); err != nil {
		logger.WithError(err).Error("Publishing header failed")
		return err
	}

	return nil
}

// checkLinkDependencies makes sure both ends of a link exist somewhere
// reachable.
func checkLinkDependencies(ctx context.Context, wc *Context, e *entry.Entry) error {
	var link *entry.LinkData
	switch e.Type {
	case entry.LinkAddType:
		link = e.LinkAdd
	case entry.LinkRemoveType:
		link = &e.LinkRemove.Link
	default:
		return nil
	}

	ends := []struct {
		name    string
		address cas.Address
	}{
		{"base", link.Base},
		{"target", link.Target},
	}
	for _, end := range ends {
		found, err := wc.Network.FetchEntry(ctx, end.address)
		if err != nil {
			return err
		}
		if found == nil {
			return cm.NewCoreErr(cm.ValidationFailed, string(end.address),
				fmt.Sprintf("%s for link not found", end.name))
		}
	}
	return nil
}

// validateLocal builds the package from the local chain and runs the Chain
// lifecycle validation. The header is not committed yet, so the package is
// built off its previous link.
func validateLocal(wc *Context, e *entry.Entry, h entry.ChainHeader) error {
	def := wc.DNA.PackageDefinition(e.Type)

	pkg, err := validation.BuildLocal(wc.ChainStore(), h, def, wc.DNA)
	if err != nil {
		return err
	}

	req := proxy.NewValidateRequest(e, pkg, validation.Chain, validation.ActionFor(e, h))
	result, err := wc.Validator.Validate(req)
	if err != nil {
		return cm.WrapCoreErr(cm.IoError, string(e.Address()), err)
	}

	err = result.Err(e.Address())
	if core, ok := cm.AsCore(err); ok && core.Kind == cm.ValidationPending {
		// an author cannot wait for its own entry
		return cm.NewCoreErr(cm.ValidationFailed, core.Address,
			"unresolved dependencies: "+strings.Join(core.Dependencies, ", "))
	}
	return err
}
