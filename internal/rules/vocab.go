// Package rules holds the concrete detectors shipped with flint. Every
// detector keeps its domain knowledge in the closed vocabularies below;
// extending coverage means adding a table row, never branching in rule code.
package rules

import "flint/internal/heur"

// Disposables maps a known disposable or cancellable type to the method its
// owner must call during teardown.
var Disposables = map[string]string{
	"Timer":                 "cancel",
	"StreamSubscription":    "cancel",
	"StreamController":      "close",
	"AnimationController":   "dispose",
	"TextEditingController": "dispose",
	"ScrollController":      "dispose",
	"FocusNode":             "dispose",
	"TabController":         "dispose",
}

// StatefulBases are base classes whose subclasses own a teardown lifecycle.
var StatefulBases = heur.NewNameSet("State", "ChangeNotifier", "Bloc", "Cubit")

// TeardownMethods name the recognized teardown entry points a class may
// override.
var TeardownMethods = heur.NewNameSet("dispose", "close")

// StateMutators are methods that mutate element state and therefore need a
// liveness guard when called from asynchronous continuations.
var StateMutators = heur.NewNameSet("setState", "markNeedsBuild")

// SafeDeferrals are scheduling wrappers whose callback arguments count as
// safe regions for the liveness-guard rule: the wrapped code runs on a later
// tick where the framework re-checks element liveness itself.
var SafeDeferrals = heur.NewNameSet(
	"addPostFrameCallback",
	"scheduleMicrotask",
	"Future.microtask",
	"Timer.run",
)

// InsecureRandom names random-source constructors that are not
// cryptographically secure.
var InsecureRandom = heur.NewNameSet("Random", "math.Random")

// FocusedTests name test-runner entry points that narrow a suite to a single
// test and must not be committed.
var FocusedTests = heur.NewNameSet("solo_test", "fit", "fdescribe", "ftest")
