package workflow

import (
	"context"
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/consistency"
	"github.com/mosaicnetworks/sourcechain/src/dht"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

// HoldAspect validates an aspect received from the network and applies it
// to the DHT store. When a dependency is not held yet, the aspect is added
// to the pending set and HoldAspect returns pending=true with no error. Any
// other error is terminal for the aspect.
func HoldAspect(ctx context.Context, wc *Context, aspect entry.EntryAspect) (pending bool, err error) {
	if aspect.Kind == entry.HeaderAspect {
		return false, holdHeader(wc, aspect)
	}

	workflow, err := dht.WorkflowFor(aspect)
	if err != nil {
		holdAspectTotal.WithLabelValues("none", resultRejected).Inc()
		return false, err
	}

	e, h, err := aspect.ChainPair()
	if err != nil {
		holdAspectTotal.WithLabelValues(workflow.String(), resultRejected).Inc()
		return false, err
	}

	logger := wc.logger().WithFields(logrus.Fields{
		"aspect":   aspect.Kind,
		"address":  aspect.EntryAddress(),
		"workflow": workflow,
	})

	err = runWorkflow(ctx, wc, aspect, e, h, workflow)

	if core, ok := cm.AsCore(err); ok && core.Kind == cm.ValidationPending {
		wc.DHT.AddPending(dht.NewPendingValidation(aspect, e, h, workflow, dependencies(core)))
		holdAspectTotal.WithLabelValues(workflow.String(), resultPending).Inc()
		logger.WithField("dependencies", core.Dependencies).Debug("Aspect pending")
		return true, nil
	}

	if err != nil {
		holdAspectTotal.WithLabelValues(workflow.String(), resultRejected).Inc()
		logger.WithError(err).Warn("Aspect not held")
		return false, err
	}

	holdAspectTotal.WithLabelValues(workflow.String(), resultHeld).Inc()
	logger.Debug("Aspect held")
	return false, nil
}

// holdHeader stores a header aspect without validating it, so that chains
// can be walked by fetching one header at a time.
func holdHeader(wc *Context, aspect entry.EntryAspect) error {
	if err := aspect.Header.VerifyProvenances(); err != nil {
		holdAspectTotal.WithLabelValues("header", resultRejected).Inc()
		return err
	}
	if err := wc.DHT.HoldHeader(aspect.Header); err != nil {
		holdAspectTotal.WithLabelValues("header", resultError).Inc()
		return err
	}
	wc.DHT.MarkHeld(aspect)
	wc.observe(consistency.Hold{Aspect: aspect})
	holdAspectTotal.WithLabelValues("header", resultHeld).Inc()
	return nil
}

// runWorkflow checks dependencies, builds the package from the network,
// validates, and applies the reducer of the workflow. It returns a
// ValidationPending error when the aspect has to wait.
func runWorkflow(ctx context.Context, wc *Context, aspect entry.EntryAspect, e *entry.Entry, h entry.ChainHeader, workflow dht.WorkflowKind) error {
	if wc.DHT.IsHolding(aspect) {
		return nil
	}

	missing, err := missingDependencies(wc, e, h)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return cm.NewPendingErr(string(e.Address()), missing)
	}

	if err := h.VerifyProvenances(); err != nil {
		return err
	}

	def := wc.DNA.PackageDefinition(e.Type)
	pkg, err := validation.BuildFromDHT(ctx, wc.Network, h, def, wc.DNA, wc.hopTimeout())
	if err != nil {
		return err
	}

	req := proxy.NewValidateRequest(e, pkg, validation.Dht, validation.ActionFor(e, h))
	result, err := wc.Validator.Validate(req)
	if err != nil {
		return cm.WrapCoreErr(cm.IoError, string(e.Address()), err)
	}
	if err := result.Err(e.Address()); err != nil {
		return err
	}

	if err := reduce(wc.DHT, workflow, e, h); err != nil {
		return err
	}

	wc.DHT.MarkHeld(aspect)
	wc.observe(consistency.Hold{Aspect: aspect})
	return nil
}

func reduce(store *dht.Store, workflow dht.WorkflowKind, e *entry.Entry, h entry.ChainHeader) error {
	switch workflow {
	case dht.HoldEntry:
		return store.HoldEntry(e, h)
	case dht.UpdateEntry:
		return store.UpdateEntry(e, h)
	case dht.RemoveEntry:
		return store.RemoveEntry(e, h)
	case dht.HoldLink:
		return store.AddLink(e, h)
	case dht.RemoveLink:
		return store.RemoveLink(e, h)
	}
	return cm.NewCoreErr(cm.NotImplemented, string(e.Address()),
		fmt.Sprintf("no reducer for workflow %s", workflow))
}

func missingDependencies(wc *Context, e *entry.Entry, h entry.ChainHeader) ([]string, error) {
	missing := []string{}
	seen := map[cas.Address]bool{}
	for _, dep := range entry.Dependencies(e, h) {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		ok, err := wc.DHT.Contains(dep)
		if err != nil {
			return nil, cm.WrapCoreErr(cm.IoError, string(dep), err)
		}
		if !ok {
			missing = append(missing, string(dep))
		}
	}
	return missing, nil
}

func dependencies(core *cm.CoreErr) []cas.Address {
	res := make([]cas.Address, len(core.Dependencies))
	for i, d := range core.Dependencies {
		res[i] = cas.Address(d)
	}
	return res
}
