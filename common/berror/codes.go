package berror

const (
	CodeUnknownJob          Code = "configuration/unknown-job"
	CodeDuplicateJob        Code = "configuration/duplicate-job"
	CodeInvalidIdentifier   Code = "configuration/invalid-identifier"
	CodeMissingDependency   Code = "configuration/missing-dependency"
	CodeMissingSource       Code = "configuration/missing-source"
	CodeUnknownPlugin       Code = "configuration/unknown-plugin"
	CodeInvalidURI          Code = "configuration/invalid-uri"
	CodeCycleDetected       Code = "internal/cycle-detected"
	CodeGraphInvariant      Code = "internal/graph-invariant-violated"
	CodeCacheCorrupt        Code = "internal/cache-index-corrupt"
	CodeBuildFailed         Code = "build/failed"
	CodeCommandFailed       Code = "build/command-failed"
	CodePluginLoadFailed    Code = "plugin/load-failed"
	CodeBlueprintFailed     Code = "plugin/blueprint-failed"
	CodeInvalidBlueprint    Code = "plugin/invalid-output"
	CodeIOFailure           Code = "environment/io-failure"
	CodePermissionDenied    Code = "environment/permission-denied"
	CodeToolNotFound        Code = "environment/tool-not-found"
	CodeScriptingFailed     Code = "scripting/failed"
)

func NewUnknownJob(jobID string) Error {
	return Newf(KindConfiguration, CodeUnknownJob, "unknown job %q", jobID)
}

func NewDuplicateJob(jobID string) Error {
	return Newf(KindConfiguration, CodeDuplicateJob, "job %q is already registered", jobID)
}

func NewInvalidIdentifier(id string, cause error) Error {
	return Newf(KindConfiguration, CodeInvalidIdentifier, "invalid identifier %q", id).Wrap(cause)
}

func NewMissingDependency(dependentJobID, missingID string) Error {
	return Newf(KindConfiguration, CodeMissingDependency,
		"job %q depends on unknown job %q", dependentJobID, missingID)
}

func NewMissingSource(root string) Error {
	return Newf(KindConfiguration, CodeMissingSource, "source set root does not exist: %s", root)
}

func NewCycleDetected() Error {
	return New(KindInternal, CodeCycleDetected, "a cycle was detected in the execution graph")
}

func NewBuildFailed(jobID string, cause error) Error {
	return Newf(KindBuild, CodeBuildFailed, "job %q failed", jobID).Wrap(cause)
}
