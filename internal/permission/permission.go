package permission

// Permission 权限位掩码，每一位代表一项独立能力
type Permission uint32

const (
	ViewSettings Permission = 1 << iota
	CreatePost
	UploadFile
	EditPost
	DeleteComment
	DeletePost
	PinPost
	EditCommunity
	ManageMembers
	ManageRoles
)

// All 全部权限的按位或；社区创建者无条件持有
const All = ViewSettings | CreatePost | UploadFile | EditPost | DeleteComment |
	DeletePost | PinPost | EditCommunity | ManageMembers | ManageRoles

// Upload 发帖 + 传文件的组合位，便于跨能力检查
const Upload = CreatePost | UploadFile

// Has 判断掩码是否包含指定权限；掩码里未定义的位不参与判断
func Has(mask, p Permission) bool {
	return mask&p == p
}

// Union 合并若干权限位
func Union(ps ...Permission) Permission {
	var m Permission
	for _, p := range ps {
		m |= p
	}
	return m
}
