package constants

// 用户角色常量
const (
	RoleGuest  = "guest"
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// 用户状态常量
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// 订单状态与支付方式常量
const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"

	PaymentMethodCOD = "COD"
)

// 本地持久化存储 key（与浏览器端保持一致）
const (
	StorageKeyUser  = "user"
	StorageKeyAdmin = "admin"
	StorageKeyCart  = "cart"
	StorageKeyTheme = "theme"
)

// 跨上下文通知主题
const (
	TopicCartChanged    = "cartChanged"
	TopicSessionChanged = "sessionChanged"
)

// 购物车待处理操作 key 与提示文案
const (
	PendingKeyClear = "clear"

	PendingLabelAdding   = "Adding…"
	PendingLabelUpdating = "Updating…"
	PendingLabelRemoving = "Removing…"
	PendingLabelClearing = "Clearing…"
	PendingLabelMoving   = "Moving…"

	PendingKeyCheckout       = "checkout"
	PendingLabelPlacingOrder = "Placing order…"
	PendingLabelCancelling   = "Cancelling…"
	PendingLabelSaving       = "Saving…"
)

// 前端路由常量
const (
	RouteHome             = "/"
	RouteLogin            = "/login"
	RouteAdminDashboard   = "/admindashboard"
	RouteSellerDashboard  = "/sellerdashboard"
	RouteSellerRegister   = "/seller/register"
	RouteCart             = "/cart"
	RouteOrders           = "/orders"
	RouteProfile          = "/profile"
	RouteElevatedSegment  = "/admin"
	BadgeOverflowText     = "99+"
	BadgeOverflowQuantity = 99
)

// 主题常量
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// REST 接口路径（相对 API 基础地址）
const (
	APIPathCart           = "/cart"
	APIPathCartAdd        = "/cart/add"
	APIPathCartUpdate     = "/cart/update"
	APIPathCartRemove     = "/cart/remove/"
	APIPathCartClear      = "/cart/clear"
	APIPathLogout         = "/logout"
	APIPathWishlist       = "/wishlist"
	APIPathWishlistAdd    = "/wishlist/add"
	APIPathWishlistRemove = "/wishlist/remove/"
	APIPathAdminLogin     = "/admin/login"
	APIPathSellerLogin    = "/seller/login"
	APIPathUserLogin      = "/user/login"
	APIPathOrders         = "/orders"
	APIPathOrdersByUser   = "/orders/user/"
	APIPathUserProfile    = "/user/profile"
	APIPathBecomeSeller   = "/user/become-seller"
)
