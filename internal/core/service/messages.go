package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// msgKey identifies a user-facing message in the catalog.
type msgKey string

const (
	msgProductCreated      msgKey = "product.created"
	msgProductCreateFailed msgKey = "product.create_failed"
	msgProductsListed      msgKey = "product.listed"
	msgProductsListFailed  msgKey = "product.list_failed"
	msgProductFetched      msgKey = "product.fetched"
	msgProductFetchFailed  msgKey = "product.fetch_failed"
	msgProductUpdated      msgKey = "product.updated"
	msgProductUpdateFailed msgKey = "product.update_failed"
	msgProductDeleted      msgKey = "product.deleted"
	msgProductDeleteFailed msgKey = "product.delete_failed"
	msgSearchFound         msgKey = "search.found"
	msgSearchFailed        msgKey = "search.failed"
	msgStatsFetched        msgKey = "stats.fetched"
	msgStatsFailed         msgKey = "stats.failed"
	msgExportDone          msgKey = "export.done"
	msgExportFailed        msgKey = "export.failed"
	msgImportDone          msgKey = "import.done"
	msgImportPartial       msgKey = "import.partial"
	msgImportFailed        msgKey = "import.failed"
	msgImportInvalid       msgKey = "import.invalid_format"

	msgLoginOK        msgKey = "auth.login_ok"
	msgLoginFailed    msgKey = "auth.login_failed"
	msgRegisterOK     msgKey = "auth.register_ok"
	msgRegisterFailed msgKey = "auth.register_failed"
	msgLogoutOK       msgKey = "auth.logout_ok"
	msgLogoutFailed   msgKey = "auth.logout_failed"
	msgSignedInAs     msgKey = "auth.signed_in_as"
	msgNotSignedIn    msgKey = "auth.not_signed_in"

	msgEditUnchanged  msgKey = "edit.unchanged"
	msgEditCommitted  msgKey = "edit.committed"
	msgEditRolledBack msgKey = "edit.rolled_back"
	msgEditInvalid    msgKey = "edit.invalid_number"
	msgEditBusy       msgKey = "edit.busy"

	msgProxyEnabled      msgKey = "proxy.enabled"
	msgProxyDisabled     msgKey = "proxy.disabled"
	msgProxySwitched     msgKey = "proxy.switched"
	msgProxySwitchFailed msgKey = "proxy.switch_failed"
	msgProxyStatus       msgKey = "proxy.status"
	msgProxyReset        msgKey = "proxy.reset"
	msgProxyDirectOK     msgKey = "proxy.direct_ok"
	msgProxyFound        msgKey = "proxy.found"
	msgProxyNoneWorks    msgKey = "proxy.none_works"
	msgProxyPersistFail  msgKey = "proxy.persist_failed"
)

type translation struct {
	en string
	ar string
}

var translations = map[msgKey]translation{
	msgProductCreated:      {"Product added successfully", "تم إضافة المنتج بنجاح"},
	msgProductCreateFailed: {"Failed to add product", "حدث خطأ أثناء إضافة المنتج"},
	msgProductsListed:      {"Products fetched successfully", "تم جلب البيانات بنجاح"},
	msgProductsListFailed:  {"Failed to fetch products", "حدث خطأ أثناء جلب البيانات"},
	msgProductFetched:      {"Product fetched successfully", "تم جلب المنتج بنجاح"},
	msgProductFetchFailed:  {"Failed to fetch product", "حدث خطأ أثناء جلب المنتج"},
	msgProductUpdated:      {"Product updated successfully", "تم تحديث المنتج بنجاح"},
	msgProductUpdateFailed: {"Failed to update product", "حدث خطأ أثناء تحديث المنتج"},
	msgProductDeleted:      {"Product deleted successfully", "تم حذف المنتج بنجاح"},
	msgProductDeleteFailed: {"Failed to delete product", "حدث خطأ أثناء حذف المنتج"},
	msgSearchFound:         {"Found %d products", "تم العثور على %d منتج"},
	msgSearchFailed:        {"Search failed", "حدث خطأ أثناء البحث"},
	msgStatsFetched:        {"Statistics computed successfully", "تم جلب الإحصائيات بنجاح"},
	msgStatsFailed:         {"Failed to compute statistics", "حدث خطأ أثناء جلب الإحصائيات"},
	msgExportDone:          {"Data exported successfully", "تم تصدير البيانات بنجاح"},
	msgExportFailed:        {"Failed to export data", "حدث خطأ أثناء تصدير البيانات"},
	msgImportDone:          {"Imported %d products successfully", "تم استيراد %d منتج بنجاح"},
	msgImportPartial:       {"Imported %d products successfully (%d failed)", "تم استيراد %d منتج بنجاح (%d فشل)"},
	msgImportFailed:        {"Failed to import data", "حدث خطأ أثناء استيراد البيانات"},
	msgImportInvalid:       {"Invalid file format", "تنسيق الملف غير صالح"},

	msgLoginOK:        {"Logged in successfully as %s", "تم تسجيل الدخول بنجاح كـ %s"},
	msgLoginFailed:    {"Error during user login", "حدث خطأ أثناء تسجيل الدخول"},
	msgRegisterOK:     {"User registered successfully", "تم تسجيل المستخدم بنجاح"},
	msgRegisterFailed: {"Error during user registration", "حدث خطأ أثناء تسجيل المستخدم"},
	msgLogoutOK:       {"Logged out", "تم تسجيل الخروج"},
	msgLogoutFailed:   {"Failed to log out", "حدث خطأ أثناء تسجيل الخروج"},
	msgSignedInAs:     {"Signed in as %s", "تم تسجيل الدخول كـ %s"},
	msgNotSignedIn:    {"Not signed in", "لم يتم تسجيل الدخول"},

	msgEditUnchanged:  {"No changes", "لا توجد تغييرات"},
	msgEditCommitted:  {"Product updated successfully", "تم تحديث المنتج بنجاح"},
	msgEditRolledBack: {"Update failed, value restored", "فشل التحديث، تمت استعادة القيمة"},
	msgEditInvalid:    {"Please enter a valid number for %s", "يرجى إدخال رقم صحيح لـ %s"},
	msgEditBusy:       {"An update for this cell is still in progress", "لا يزال تحديث هذه الخلية قيد التنفيذ"},

	msgProxyEnabled:      {"CORS proxy enabled: %s", "تم تفعيل وكيل CORS: %s"},
	msgProxyDisabled:     {"CORS proxy disabled", "تم إيقاف وكيل CORS"},
	msgProxySwitched:     {"Switched to proxy %d: %s", "تم التبديل إلى الوكيل %d: %s"},
	msgProxySwitchFailed: {"Invalid proxy index", "رقم الوكيل غير صالح"},
	msgProxyStatus:       {"Proxy status", "حالة الوكيل"},
	msgProxyReset:        {"Proxy settings reset", "تمت إعادة تعيين إعدادات الوكيل"},
	msgProxyDirectOK:     {"Direct connection works", "الاتصال المباشر يعمل"},
	msgProxyFound:        {"Connected through proxy %d: %s", "تم الاتصال عبر الوكيل %d: %s"},
	msgProxyNoneWorks:    {"No working connection found", "لم يتم العثور على اتصال يعمل"},
	msgProxyPersistFail:  {"Failed to save proxy settings", "حدث خطأ أثناء حفظ إعدادات الوكيل"},
}

var supportedLocales = []language.Tag{language.English, language.Arabic}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, tr := range translations {
		_ = b.SetString(language.English, string(key), tr.en)
		_ = b.SetString(language.Arabic, string(key), tr.ar)
	}
	return b
}

// Messages renders user-facing messages in one locale.
type Messages struct {
	printer *message.Printer
	tag     language.Tag
}

// NewMessages returns Messages for locale, falling back to English when the
// locale is empty or unsupported.
func NewMessages(locale string) *Messages {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			matcher := language.NewMatcher(supportedLocales)
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = supportedLocales[idx]
			}
		}
	}
	return &Messages{
		printer: message.NewPrinter(tag, message.Catalog(messageCatalog)),
		tag:     tag,
	}
}

// Locale returns the resolved language tag.
func (m *Messages) Locale() language.Tag { return m.tag }

func (m *Messages) get(key msgKey, args ...any) string {
	return m.printer.Sprintf(string(key), args...)
}
