/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/config"
	"github.com/dcevm/dcevm/internal/errs"
	"github.com/dcevm/dcevm/internal/heaprewriter"
	"github.com/dcevm/dcevm/internal/metrics"
	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/safepoint"
	"github.com/dcevm/dcevm/internal/trace"
	"github.com/dcevm/dcevm/internal/types"

	"github.com/google/uuid"
)

// revisionCounter is the process-wide monotonically increasing revision
// tag  "Revision numbering" specifies: initialized to -1,
// incremented at the start of every transaction.
var revisionCounter = int64(types.NoRevision)

func nextRevision() types.Revision {
	return types.Revision(atomic.AddInt64(&revisionCounter, 1))
}

// Result is what RedefineClasses returns on success: the error code
// (NONE), the transaction's revision number, and any instance
// transformers.
type Result struct {
	Code                 errs.Code
	Revision             types.Revision
	TransactionID        string
	InstanceTransformers []string // class names carrying $$transformer
}

// CommitController orchestrates the full pipeline of 's data
// flow: AffectedSetBuilder -> NewVersionLoader -> (safepoint) ->
// MethodMatcher + per-class install -> HeapRewriter -> optional full GC
// -> release safepoint -> epilogue. On any error it invokes Rollback and
// returns the first error code.
type CommitController struct {
	Registry *classregistry.Registry
	Config   config.RedefinitionConfig

	ClassLoader     runtimehost.ClassLoader
	Verifier        runtimehost.Verifier
	Roots           runtimehost.Roots
	Heap            runtimehost.Heap
	Compiler        runtimehost.CompilerBroker
	Breakpoints     runtimehost.BreakpointTable
	NativeBindings  runtimehost.NativeBindings
	Threads         runtimehost.ManagedThreads
	Reconstitute    func(className string) ([]byte, *errs.Error)
	Metrics         *metrics.Collector

	// mu serializes transactions:  "the operation is
	// single-writer: one redefinition transaction at a time, serialized
	// by a global lock".
	mu sync.Mutex
}

// RedefineClasses is the single entry point of :
// redefine_classes(defs) -> error_code.
func (c *CommitController) RedefineClasses(defs []ClassDef) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	txTimer := trace.NewTimer("RedefineClasses")
	txTimer.Start()
	defer txTimer.Stop()

	txID := uuid.NewString()
	trace.RC(1, component, "transaction starting", "tx", txID, "classes", len(defs))

	result := c.run(defs, txID)

	if c.Metrics != nil {
		outcome := "committed"
		if result.Code != errs.NONE {
			outcome = "rejected"
			c.Metrics.RollbacksTotal.WithLabelValues(result.Code.String()).Inc()
		}
		c.Metrics.Transactions.WithLabelValues(outcome).Inc()
		c.Metrics.TransactionTime.Observe(time.Since(start).Seconds())
	}

	trace.RC(1, component, "transaction finished", "tx", txID, "code", result.Code.String())
	return result
}

func (c *CommitController) run(defs []ClassDef, txID string) Result {
	revision := nextRevision()

	if err := c.checkArguments(defs); err != nil {
		return Result{Code: err.Code}
	}

	defByName := make(map[string]*ClassDef, len(defs))
	for i := range defs {
		defByName[defs[i].ClassName] = &defs[i]
	}

	builder := AffectedSetBuilder{Registry: c.Registry}
	affected, err := builder.Build(defs, parseForEdges(c.Registry, defByName))
	if err != nil {
		return Result{Code: err.Code}
	}
	if c.Metrics != nil {
		c.Metrics.AffectedClasses.Observe(float64(len(affected)))
	}

	loader := &NewVersionLoader{
		Registry: c.Registry,
		Loader:   c.ClassLoader,
		Verifier: c.Verifier,
		Analyzer: ChangeAnalyzer{AllowAdvancedClassRedefinition: c.Config.AllowAdvancedClassRedefinition},
	}
	pairs, err := loader.Load(affected, defByName, c.Reconstitute)
	if err != nil {
		Rollback(c.Registry, pairs)
		return Result{Code: err.Code}
	}

	for _, p := range pairs {
		p.New.Revision = revision
	}

	var transformers []string
	for _, p := range pairs {
		if p.New.Flags.Has(classregistry.HasInstanceTransformer) {
			transformers = append(transformers, p.New.Name)
		}
	}

	coordinator := &safepoint.Coordinator{Compiler: c.Compiler, Threads: c.Threads}
	coordinator.Acquire()
	defer coordinator.Release()

	for _, p := range pairs {
		c.installSingleClass(p)
	}

	c.invalidateCodeCache(pairs)

	rewriter := &heaprewriter.Rewriter{Roots: c.Roots, Heap: c.Heap}
	hrPairs := make([]heaprewriter.Pair, len(pairs))
	for i, p := range pairs {
		hrPairs[i] = heaprewriter.Pair{Old: p.Old, New: p.New}
	}
	rewriteResult := rewriter.Run(hrPairs)

	if c.Metrics != nil {
		c.Metrics.InstancesMigrated.Add(float64(rewriteResult.MigratedInstances))
	}

	if rewriteResult.NeedsInstanceMigration {
		if c.Metrics != nil {
			c.Metrics.FullGCsTriggered.Inc()
		}
		if gcErr := c.Heap.CollectAsVMThread("redefine-classes"); gcErr != nil {
			trace.Error(component, "full GC failed during instance migration", "tx", txID, "err", gcErr)
			return Result{Code: errs.INTERNAL}
		}
	}

	heaprewriter.Finalize(hrPairs, c.Registry)

	return Result{
		Code:                 errs.NONE,
		Revision:             revision,
		TransactionID:        txID,
		InstanceTransformers: transformers,
	}
}

// checkArguments validates the caller's input, detected in the prologue
// before any safepoint is requested.
func (c *CommitController) checkArguments(defs []ClassDef) *errs.Error {
	if defs == nil {
		return errs.New(component, errs.NULL_POINTER, "nil class definition list")
	}
	if len(defs) == 0 {
		return errs.New(component, errs.NULL_POINTER, "empty class definition list")
	}
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.ClassName == "" {
			return errs.New(component, errs.NULL_POINTER, "class definition missing class name")
		}
		if seen[d.ClassName] {
			return errs.New(component, errs.INVALID_CLASS, "duplicate class definition: "+d.ClassName)
		}
		seen[d.ClassName] = true
		if _, ok := c.Registry.Lookup(d.ClassName); !ok {
			return errs.New(component, errs.INVALID_CLASS, "class not loaded: "+d.ClassName)
		}
	}
	return nil
}

// installSingleClass implements redefine_single_class.
func (c *CommitController) installSingleClass(p LoadedPair) {
	c.Breakpoints.ClearAllInClass(p.Old.Name)

	matcher := MethodMatcher{}
	pairing := matcher.Match(p.Old, p.New)

	for i, oldIdx := range pairing.MatchingOld {
		newIdx := pairing.MatchingNew[i]
		c.Breakpoints.Transfer(p.Old.Methods[oldIdx].ID, p.New.Methods[newIdx].ID)
	}

	transfer := NativeBindingTransfer{Bindings: c.NativeBindings}
	transfer.Transfer(p.Old, p.New, pairing)

	p.New.RedefinedCount = p.Old.RedefinedCount + 1
	propagateRedefinedCount(p.New, c.Registry)
}

// propagateRedefinedCount bumps every subclass loaded against this chain
// so a query against a subclass reflects redefinitions of its ancestors.
func propagateRedefinedCount(new *classregistry.ClassVersion, registry *classregistry.Registry) {
	for _, cv := range registry.All() {
		if cv == new {
			continue
		}
		for _, anc := range registry.Ancestors(cv) {
			if anc == new.Name {
				cv.RedefinedCount++
				break
			}
		}
	}
}

// invalidateCodeCache marks compiled methods for deopt, walks stacks to
// deoptimize dependent activations, and rewrites/invalidates every
// loaded class's constant-pool cache.
func (c *CommitController) invalidateCodeCache(pairs []LoadedPair) {
	for _, p := range pairs {
		c.Compiler.MarkForDeopt(p.Old.Name)
		c.Compiler.DeoptimizeStacks(p.Old.Name)
	}

	for _, cv := range c.Registry.All() {
		if cv.CP == nil {
			continue
		}
		if n := cv.CP.RewriteToNewest(); n > 0 {
			cv.CP.Invalidate()
		}
	}

	if c.Config.UseMethodForwardPoints {
		// Interpreter frame forwarding is modeled only as a detectable
		// opt-in: there is no interpreter in
		// this engine to walk frames on, so the flag is honored as a
		// no-op rather than guessed at.
		trace.RC(3, component, "method-forward-points requested but no interpreter frames to forward")
	}
}
