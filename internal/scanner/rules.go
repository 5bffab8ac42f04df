package scanner

import "regexp"

// dangerousExtensions — расширения исполняемых файлов и скриптов,
// которые отклоняются независимо от содержимого.
var dangerousExtensions = map[string]struct{}{
	// Windows: исполняемые файлы и скрипты
	".exe": {}, ".bat": {}, ".cmd": {}, ".com": {}, ".scr": {}, ".pif": {},
	".msi": {}, ".msp": {}, ".mst": {}, ".vbs": {}, ".vbe": {}, ".js": {},
	".jse": {}, ".wsf": {}, ".wsh": {}, ".ps1": {}, ".ps1xml": {}, ".ps2": {},
	".ps2xml": {}, ".psc1": {}, ".psc2": {}, ".msh": {}, ".msh1": {}, ".msh2": {},
	".mshxml": {}, ".msh1xml": {}, ".msh2xml": {}, ".reg": {}, ".inf": {},
	// Linux/Mac: исполняемые файлы и скрипты
	".sh": {}, ".bash": {}, ".zsh": {}, ".ksh": {}, ".csh": {}, ".fish": {},
	".elf": {}, ".out": {}, ".run": {},
	// Скомпилированный код / библиотеки
	".dll": {}, ".so": {}, ".dylib": {}, ".sys": {}, ".drv": {},
	// Java
	".jar": {}, ".jnlp": {}, ".class": {},
	// Офисные документы с макросами
	".xlsm": {}, ".xlsb": {}, ".xltm": {}, ".docm": {}, ".dotm": {},
	".pptm": {}, ".potm": {}, ".ppam": {}, ".ppsm": {}, ".sldm": {},
	// Прочее
	".hta": {}, ".cpl": {}, ".gadget": {}, ".application": {},
	".appref-ms": {}, ".lnk": {}, ".url": {},
}

// signature — известная сигнатура опасного формата в начале файла.
type signature struct {
	offset      int
	magic       []byte
	description string
}

// dangerousSignatures — магические байты исполняемых форматов и контейнеров.
// Порядок важен: более длинные сигнатуры с тем же префиксом идут раньше.
var dangerousSignatures = []signature{
	{0, []byte("MZ"), "исполняемый файл Windows PE (заголовок MZ)"},
	{0, []byte{0x7f, 'E', 'L', 'F'}, "исполняемый файл Linux ELF"},
	{0, []byte{0xca, 0xfe, 0xba, 0xbe}, "Java class / Mach-O fat binary"},
	{0, []byte{0xfe, 0xed, 0xfa, 0xce}, "исполняемый файл Mach-O (32-бит)"},
	{0, []byte{0xfe, 0xed, 0xfa, 0xcf}, "исполняемый файл Mach-O (64-бит)"},
	{0, []byte{0xce, 0xfa, 0xed, 0xfe}, "исполняемый файл Mach-O (32-бит, обратный порядок)"},
	{0, []byte{0xcf, 0xfa, 0xed, 0xfe}, "исполняемый файл Mach-O (64-бит, обратный порядок)"},
	{0, []byte("#!"), "скрипт Unix (shebang)"},
	{0, []byte("PK\x03\x04"), "архив ZIP/JAR (может содержать исполняемые файлы)"},
	{0, []byte{0xd0, 0xcf, 0x11, 0xe0}, "составной документ Microsoft Office OLE2"},
}

// dangerousMIMETypes — типы содержимого, определяемые библиотекой mimetype,
// которые отклоняются независимо от заявленного расширения. Дублирует часть
// таблицы сигнатур как независимый уровень проверки.
var dangerousMIMETypes = []string{
	"application/vnd.microsoft.portable-executable",
	"application/x-msdownload",
	"application/x-elf",
	"application/x-executable",
	"application/x-sharedlib",
	"application/x-mach-binary",
	"application/java-archive",
	"application/x-java-applet",
	"application/x-ms-installer",
}

// suspiciousPatterns — подстроки известных вредоносных приемов.
// Хранятся в верхнем регистре, сравнение регистронезависимое.
var suspiciousPatterns = [][]byte{
	// PowerShell download cradles
	[]byte("INVOKE-WEBREQUEST"),
	[]byte("IEX("),
	[]byte("INVOKE-EXPRESSION"),
	[]byte("DOWNLOADSTRING"),
	[]byte("DOWNLOADFILE"),
	[]byte("NET.WEBCLIENT"),
	[]byte("START-PROCESS"),
	[]byte("POWERSHELL -ENC"),
	[]byte("POWERSHELL -E "),
	// Python/shell исполнение
	[]byte("__IMPORT__('OS')"),
	[]byte("SUBPROCESS.CALL"),
	[]byte("SUBPROCESS.POPEN"),
	[]byte("OS.SYSTEM("),
	[]byte("EVAL(BASE64"),
	[]byte("EXEC(BASE64"),
	[]byte("EXEC(COMPILE"),
	// Команды shell
	[]byte("CURL | BASH"),
	[]byte("WGET | BASH"),
	[]byte("CURL|BASH"),
	[]byte("WGET|BASH"),
	[]byte("BASH -I >& /DEV/TCP"),
	[]byte("/BIN/SH -I"),
	[]byte("NC -E /BIN/SH"),
	// Обфускация
	[]byte("BASE64_DECODE"),
	[]byte("FROMCHARCODE"),
	[]byte("STRING.FROMCHARCODE"),
	[]byte("UNESCAPE("),
	[]byte("ACTIVEXOBJECT"),
	[]byte("WSCRIPT.SHELL"),
	[]byte("SHELL.APPLICATION"),
}

// suspiciousRegexps — шаблоны, которые не выражаются простой подстрокой:
// варианты запуска powershell с кодированной командой и reverse-shell
// через перенаправление в /dev/tcp.
var suspiciousRegexps = []*regexp.Regexp{
	regexp.MustCompile(`(?i)powershell(\.exe)?\s+-(e|enc|encodedcommand)\b`),
	regexp.MustCompile(`(?i)>\s*&?\s*/dev/tcp/\d{1,3}(\.\d{1,3}){3}/\d+`),
}
