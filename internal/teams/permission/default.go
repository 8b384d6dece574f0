package permission

import "github.com/aussiebroadwan/gpuconsole/internal/teams/domain"

// Permission keys of the default catalog.
const (
	InstanceView   = "instance.view"
	InstanceCreate = "instance.create"
	InstanceManage = "instance.manage"
	InstanceDelete = "instance.delete"

	StorageView   = "storage.view"
	StorageCreate = "storage.create"
	StorageDelete = "storage.delete"

	BillingView   = "billing.view"
	BillingManage = "billing.manage"

	InferenceView   = "inference.view"
	InferenceDeploy = "inference.deploy"
	InferenceManage = "inference.manage"

	TeamView   = "team.view"
	TeamInvite = "team.invite"
	TeamManage = "team.manage"
)

var defaultGroups = []Group{
	{Key: "instance", Label: "GPU Instances", Permissions: []Definition{
		{Key: InstanceView, Label: "View instances", Description: "List instances and read their status and metrics"},
		{Key: InstanceCreate, Label: "Create instances", Description: "Launch new GPU instances"},
		{Key: InstanceManage, Label: "Manage instances", Description: "Start, stop, restart and resize instances"},
		{Key: InstanceDelete, Label: "Delete instances", Description: "Terminate instances and release their disks"},
	}},
	{Key: "storage", Label: "Object Storage", Permissions: []Definition{
		{Key: StorageView, Label: "View storage", Description: "Browse buckets and objects"},
		{Key: StorageCreate, Label: "Create storage", Description: "Create buckets and upload objects"},
		{Key: StorageDelete, Label: "Delete storage", Description: "Delete buckets and objects"},
	}},
	{Key: "billing", Label: "Billing", Permissions: []Definition{
		{Key: BillingView, Label: "View billing", Description: "Read invoices, balance and usage"},
		{Key: BillingManage, Label: "Manage billing", Description: "Top up balance and change payment methods"},
	}},
	{Key: "inference", Label: "Serverless Inference", Permissions: []Definition{
		{Key: InferenceView, Label: "View models", Description: "List deployed models and endpoints"},
		{Key: InferenceDeploy, Label: "Deploy models", Description: "Deploy models and call inference endpoints"},
		{Key: InferenceManage, Label: "Manage models", Description: "Scale, update and remove deployments and API keys"},
	}},
	{Key: "team", Label: "Team", Permissions: []Definition{
		{Key: TeamView, Label: "View team", Description: "See members and pending invitations"},
		{Key: TeamInvite, Label: "Invite members", Description: "Send and cancel invitations"},
		{Key: TeamManage, Label: "Manage team", Description: "Change member roles and permissions"},
	}},
}

var defaultPackages = []Package{
	{
		Key:         PackageDeveloper,
		Label:       "Developer Package",
		Description: "Day-to-day compute, storage and inference work without billing or team control",
		Permissions: []string{
			InstanceView, InstanceCreate, InstanceManage,
			StorageView, StorageCreate,
			InferenceView, InferenceDeploy,
			TeamView,
		},
	},
	{
		Key:         PackageAdmin,
		Label:       "Admin Package",
		Description: "Everything except changing payment settings",
		Permissions: []string{
			InstanceView, InstanceCreate, InstanceManage, InstanceDelete,
			StorageView, StorageCreate, StorageDelete,
			BillingView,
			InferenceView, InferenceDeploy, InferenceManage,
			TeamView, TeamInvite, TeamManage,
		},
	},
	{
		Key:         PackageOwner,
		Label:       "Owner Package",
		Description: "Full access",
		Permissions: []string{
			InstanceView, InstanceCreate, InstanceManage, InstanceDelete,
			StorageView, StorageCreate, StorageDelete,
			BillingView, BillingManage,
			InferenceView, InferenceDeploy, InferenceManage,
			TeamView, TeamInvite, TeamManage,
		},
	},
	{
		Key:         PackageCustom,
		Label:       "Custom",
		Description: "Hand-picked permissions",
	},
}

// Default is the catalog the console ships with.
var Default = MustNewCatalog(defaultGroups, defaultPackages)

// PackageForPermissions resolves perms against the default catalog.
func PackageForPermissions(perms []string) string {
	return Default.PackageForPermissions(perms)
}

// PermissionsForPackage looks key up in the default catalog.
func PermissionsForPackage(key string) ([]string, error) {
	return Default.PermissionsForPackage(key)
}

// IsPackageAssignableBy applies the assignment rule on the default catalog.
func IsPackageAssignableBy(actor domain.Role, key string) bool {
	return Default.IsPackageAssignableBy(actor, key)
}
