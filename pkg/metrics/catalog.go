package metrics

// Key prefixes.
const (
	KeyPrefix       = "sonargraph_"
	InternalPrefix  = KeyPrefix + "internal_"
	SystemPrefix    = InternalPrefix + "system_"
	domainStructure = "structure"
	domainArch      = "architecture"
	domainDebt      = "structural_debt"
	domainWarnings  = "warnings"
	domainInternal  = "internal"
)

// Sonargraph standalone attribute names as they appear in the report.
const (
	AttrJavaFiles                 = "JavaFiles"
	AttrTypeDependencies          = "TypeDependencies"
	AttrStructuralDebtIndex       = "StructuralDebtIndex"
	AttrTasks                     = "Tasks"
	AttrInternalPackages          = "InternalPackages"
	AttrErosionRefs               = "ErosionRefs"
	AttrErosionTypes              = "ErosionTypes"
	AttrACD                       = "ACD"
	AttrNCCD                      = "NCCD"
	AttrRACD                      = "RACD"
	AttrInstructions              = "Instructions"
	AttrInternalTypes             = "InternalTypes"
	AttrViolatingTypeDependencies = "ViolatingTypeDependencies"
	AttrViolatingTypes            = "ViolatingTypes"
	AttrViolatingReferences       = "ViolatingReferences"
	AttrIgnoredViolations         = "IgnoredViolations"
	AttrUnassignedTypes           = "UnassignedTypes"
	AttrAllWarnings               = "AllWarnings"
	AttrCycleWarnings             = "CycleWarnings"
	AttrDuplicateWarnings         = "DuplicateWarnings"
	AttrWorkspaceWarnings         = "WorkspaceWarnings"
	AttrThresholdWarnings         = "ThresholdWarnings"
	AttrIgnoredWarnings           = "IgnoredWarnings"
)

// Metric keys.
const (
	JavaFiles                 = KeyPrefix + "java_files"
	TypeDependencies          = KeyPrefix + "type_dependencies"
	StructuralDebtIndex       = KeyPrefix + "structural_debt_index"
	StructuralDebtCost        = KeyPrefix + "structural_debt_cost"
	Tasks                     = KeyPrefix + "tasks"
	InternalPackages          = KeyPrefix + "packages"
	Cyclicity                 = KeyPrefix + "cyclicity"
	CyclicPackages            = KeyPrefix + "cyclic_packages"
	BiggestCycleGroup         = KeyPrefix + "biggest_cycle_group"
	RelativeCyclicity         = KeyPrefix + "relative_cyclicity"
	CyclicPackagesPercent     = KeyPrefix + "cyclic_packages_percent"
	ReferencesToRemove        = KeyPrefix + "references_to_remove"
	TypeDependenciesToCut     = KeyPrefix + "type_dependencies_to_cut"
	ACD                       = KeyPrefix + "acd"
	NCCD                      = KeyPrefix + "nccd"
	RelativeACD               = KeyPrefix + "relative_acd"
	Instructions              = KeyPrefix + "instructions"
	InternalTypes             = KeyPrefix + "types"
	ViolatingTypeDependencies = KeyPrefix + "violating_type_dependencies"
	ViolatingTypes            = KeyPrefix + "violating_types"
	ViolatingTypesPercent     = KeyPrefix + "violating_types_percent"
	ViolatingReferences       = KeyPrefix + "violating_references"
	IgnoredViolations         = KeyPrefix + "ignored_violations"
	UnassignedTypes           = KeyPrefix + "unassigned_types"
	UnassignedTypesPercent    = KeyPrefix + "unassigned_types_percent"
	AllWarnings               = KeyPrefix + "all_warnings"
	CycleWarnings             = KeyPrefix + "cycle_warnings"
	DuplicateWarnings         = KeyPrefix + "duplicate_warnings"
	WorkspaceWarnings         = KeyPrefix + "workspace_warnings"
	ThresholdWarnings         = KeyPrefix + "threshold_warnings"
	IgnoredWarnings           = KeyPrefix + "ignored_warnings"

	SystemAllWarnings       = SystemPrefix + "all_warnings"
	SystemCycleWarnings     = SystemPrefix + "cycle_warnings"
	SystemThresholdWarnings = SystemPrefix + "threshold_warnings"
	SystemWorkspaceWarnings = SystemPrefix + "workspace_warnings"
	SystemIgnoredWarnings   = SystemPrefix + "ignored_warnings"
	SystemAllTasks          = SystemPrefix + "all_tasks"

	ModuleNotPartOfWorkspace = InternalPrefix + "module_not_part_of_sonargraph_workspace"
	RootProjectToBeProcessed = InternalPrefix + "root_project_to_be_processed"
)

func simple(key, display, description, domain, source string, vt ValueType, agg Aggregation) Definition {
	return Definition{
		MetricMeta: MetricMeta{
			MetricName:        key,
			MetricDisplayName: display,
			MetricDescription: description,
			MetricType:        domain,
		},
		ValueType:   vt,
		Aggregation: agg,
		Source:      source,
	}
}

func derived(key, display, description, domain string, vt ValueType, agg Aggregation) Definition {
	return simple(key, display, description, domain, "", vt, agg)
}

func system(key, display, description, source, mirror string) Definition {
	def := simple(key, display, description, domainWarnings, source, ValueInt, AggregateSystem)
	def.Mirror = mirror

	return def
}

func internal(key, display, description, source string, vt ValueType) Definition {
	def := simple(key, display, description, domainInternal, source, vt, AggregateNone)
	def.Hidden = true

	return def
}

// Catalog returns the full metric set in display order.
func Catalog() []Definition {
	return []Definition{
		simple(JavaFiles, "Java Files", "Number of Java source files.", domainStructure,
			AttrJavaFiles, ValueInt, AggregateSum),
		simple(TypeDependencies, "Type Dependencies", "Number of dependencies between types.", domainStructure,
			AttrTypeDependencies, ValueInt, AggregateSum),
		simple(Instructions, "Byte Code Instructions", "Number of byte code instructions.", domainStructure,
			AttrInstructions, ValueInt, AggregateSum),
		simple(InternalPackages, "Packages", "Number of internal packages.", domainStructure,
			AttrInternalPackages, ValueInt, AggregateSum),
		simple(Cyclicity, "Cyclicity", "Sum of squared package cycle group sizes.", domainStructure,
			"", ValueInt, AggregateSum),
		simple(CyclicPackages, "Cyclic Packages", "Number of packages in cycle groups.", domainStructure,
			"", ValueInt, AggregateSum),
		derived(BiggestCycleGroup, "Biggest Package Cycle Group", "Size of the largest package cycle group.",
			domainStructure, ValueInt, AggregateMax),
		derived(RelativeCyclicity, "Relative Cyclicity", "100 * sqrt(cyclicity) / packages.",
			domainStructure, ValuePercent, AggregateDerived),
		derived(CyclicPackagesPercent, "Cyclic Packages (%)", "Share of packages in cycle groups.",
			domainStructure, ValuePercent, AggregateDerived),
		simple(ReferencesToRemove, "References To Remove", "References to cut to break package cycles.",
			domainStructure, AttrErosionRefs, ValueInt, AggregateSum),
		simple(TypeDependenciesToCut, "Type Dependencies To Cut", "Type dependencies to cut to break package cycles.",
			domainStructure, AttrErosionTypes, ValueInt, AggregateSum),
		simple(ACD, "ACD", "Average component dependency.", domainStructure,
			AttrACD, ValueFloat, AggregateNone),
		simple(NCCD, "NCCD", "Normalized cumulative component dependency.", domainStructure,
			AttrNCCD, ValueFloat, AggregateNone),
		simple(RelativeACD, "Relative ACD", "ACD divided by the number of types.", domainStructure,
			AttrRACD, ValuePercent, AggregateNone),

		simple(StructuralDebtIndex, "Structural Debt Index", "Effort estimate to remove package cycles.",
			domainDebt, AttrStructuralDebtIndex, ValueInt, AggregateSum),
		derived(StructuralDebtCost, "Structural Debt Cost", "Structural debt index times cost per index point.",
			domainDebt, ValueFloat, AggregateSum),
		system(Tasks, "Tasks", "Number of open Sonargraph tasks.", AttrTasks, SystemAllTasks),

		simple(InternalTypes, "Types", "Number of internal types.", domainArch,
			AttrInternalTypes, ValueInt, AggregateSum),
		simple(ViolatingTypeDependencies, "Violating Type Dependencies", "Type dependencies violating the architecture.",
			domainArch, AttrViolatingTypeDependencies, ValueInt, AggregateSum),
		simple(ViolatingTypes, "Violating Types", "Types taking part in architecture violations.", domainArch,
			AttrViolatingTypes, ValueInt, AggregateSum),
		derived(ViolatingTypesPercent, "Violating Types (%)", "Share of types taking part in violations.",
			domainArch, ValuePercent, AggregateDerived),
		simple(ViolatingReferences, "Violating References", "References violating the architecture.", domainArch,
			AttrViolatingReferences, ValueInt, AggregateSum),
		simple(IgnoredViolations, "Ignored Violations", "Architecture violations marked as ignored.", domainArch,
			AttrIgnoredViolations, ValueInt, AggregateSum),
		simple(UnassignedTypes, "Unassigned Types", "Types not assigned to any artifact.", domainArch,
			AttrUnassignedTypes, ValueInt, AggregateSum),
		derived(UnassignedTypesPercent, "Unassigned Types (%)", "Share of types not assigned to any artifact.",
			domainArch, ValuePercent, AggregateDerived),

		system(AllWarnings, "All Warnings", "Number of Sonargraph warnings.", AttrAllWarnings, SystemAllWarnings),
		system(CycleWarnings, "Cycle Warnings", "Warnings raised for cycle groups.", AttrCycleWarnings,
			SystemCycleWarnings),
		simple(DuplicateWarnings, "Duplicate Code Warnings", "Warnings raised for duplicated code blocks.",
			domainWarnings, AttrDuplicateWarnings, ValueInt, AggregateSum),
		system(WorkspaceWarnings, "Workspace Warnings", "Warnings about the workspace setup.", AttrWorkspaceWarnings,
			SystemWorkspaceWarnings),
		system(ThresholdWarnings, "Threshold Warnings", "Metric threshold violations.", AttrThresholdWarnings,
			SystemThresholdWarnings),
		system(IgnoredWarnings, "Ignored Warnings", "Warnings marked as ignored.", AttrIgnoredWarnings,
			SystemIgnoredWarnings),

		internal(SystemAllWarnings, "System Warnings", "System-wide warning count.", AttrAllWarnings, ValueInt),
		internal(SystemCycleWarnings, "System Cycle Warnings", "System-wide cycle warning count.",
			AttrCycleWarnings, ValueInt),
		internal(SystemThresholdWarnings, "System Threshold Warnings", "System-wide threshold warning count.",
			AttrThresholdWarnings, ValueInt),
		internal(SystemWorkspaceWarnings, "System Workspace Warnings", "System-wide workspace warning count.",
			AttrWorkspaceWarnings, ValueInt),
		internal(SystemIgnoredWarnings, "System Ignored Warnings", "System-wide ignored warning count.",
			AttrIgnoredWarnings, ValueInt),
		internal(SystemAllTasks, "System Tasks", "System-wide task count.", AttrTasks, ValueInt),
		internal(ModuleNotPartOfWorkspace, "Not Part Of Workspace",
			"Set when the module has no usable build unit in the report.", "", ValueBool),
		internal(RootProjectToBeProcessed, "Root Project To Be Processed",
			"Set on the root when parents should be computed.", "", ValueBool),
	}
}
