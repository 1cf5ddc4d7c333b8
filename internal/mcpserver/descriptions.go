package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeSlice() string {
	return `Prunes Java source files down to a focal method and the parts of its class it actually uses.

USE WHEN:
- Building minimal context for writing or reviewing a unit test of one method
- Explaining a single method without the noise of the rest of its class
- Estimating how much of a large class a method depends on

INTERPRETING RESULTS:
- code: the pruned source. It keeps the focal method, every method of the class it transitively calls, the fields those methods reference, the imports still referenced, and the nested classes still reachable
- Call targets are matched by simple name, so all overloads of a called name are kept
- Calls to other classes are not followed; only members of the focal class are sliced
- An empty code value means the file declares no class
- A file that does not declare the focal method is reported as an error

METRICS RETURNED:
- Per file: kept and removed methods, removed fields and imports, kept and removed classes
- tokens: estimated tokens before and after slicing and the percentage saved`
}

func describeCallers() string {
	return `Lists the methods that call a given method, from the analyzer's dependency edge feed.

USE WHEN:
- Judging the impact of changing a method's behavior or signature
- Finding entry points that lead to a method

INTERPRETING RESULTS:
- target is null when the method is not in the graph; callers is then empty
- calling_lines are 0-based line offsets within each caller's body where the call appears
- Empty calling_lines means the call was recorded by the analyzer but not found textually (e.g. implicit calls)

METRICS RETURNED:
- callers: class, signature and calling lines of each direct caller, in feed order`
}

func describeCallees() string {
	return `Lists the methods a given method calls, from the analyzer's dependency edge feed.

USE WHEN:
- Understanding what a method depends on before mocking or refactoring it
- Walking a call chain one hop at a time

INTERPRETING RESULTS:
- source is null when the method is not in the graph; callees is then empty
- calling_lines are 0-based line offsets within the method's own body

METRICS RETURNED:
- callees: class, signature and calling lines of each direct callee, in feed order`
}

func describeClassCallGraph() string {
	return `Returns the outgoing calls made by the methods of one class.

USE WHEN:
- Mapping how a class talks to its collaborators
- Narrowing to one method's outgoing calls with the method argument

INTERPRETING RESULTS:
- Only one hop is returned; targets are not expanded further
- Targets may belong to other classes

METRICS RETURNED:
- A list of source/target method pairs with class, signature and declaration`
}

func describeCallGraph() string {
	return `Returns every call edge of the graph built from the dependency edge feed.

USE WHEN:
- Exporting the whole call graph for another tool
- Inspecting method bodies alongside their call relationships

INTERPRETING RESULTS:
- One record per distinct caller/callee pair; a pair repeated in the feed keeps its last attributes
- Only CALL_DEP and CONTROL_DEP edges are graph edges

METRICS RETURNED:
- source and target signature, body and class, plus calling_lines`
}

func describeCycles() string {
	return `Finds recursion in the call graph: groups of mutually recursive methods and methods that call themselves.

USE WHEN:
- Checking for unbounded recursion risks
- Understanding tightly coupled method groups before refactoring

INTERPRETING RESULTS:
- components: each entry is a set of two or more methods that can all reach each other
- self_recursive: methods with a direct call to themselves
- Methods are written as Class#signature

METRICS RETURNED:
- cyclic flag, components, self_recursive`
}
