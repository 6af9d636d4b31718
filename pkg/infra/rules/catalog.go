package rules

const (
	CoreWeight     = 0.3
	ExtendedWeight = 0.2
	HoneypotWeight = 0.8
	BotAgentWeight = 0.3
)

type definition struct {
	name     string
	category string
	pattern  string
}

var coreCatalog = []definition{
	{"union_select", "sqli", `union\s+select`},
	{"script_tag", "xss", `<script[^>]*>`},
	{"javascript_uri", "xss", `javascript:`},
	{"eval_call", "xss", `eval\s*\(`},
	{"document_cookie", "xss", `document\.cookie`},
	{"alert_call", "xss", `alert\s*\(`},
	{"dot_dot_slash", "traversal", `\.\./`},
	{"etc_passwd", "traversal", `etc/passwd`},
	{"proc_fs", "traversal", `/proc/`},
	{"cmd_exe", "command", `cmd\.exe`},
	{"powershell", "command", `powershell`},
	{"base64_decode", "command", `base64_decode`},
	{"system_call", "command", `system\s*\(`},
	{"exec_call", "command", `exec\s*\(`},
	{"phpinfo", "scanner", `phpinfo`},
	{"wp_admin", "scanner", `wp-admin`},
	{"admin_php", "scanner", `admin\.php`},
}

var extendedCatalog = []definition{
	{"sqli_tautology", "sqli", `'\s*or\s*'?\d+'?\s*=\s*'?\d+`},
	{"sqli_quote_comment", "sqli", `['"]\s*(?:--|#|/\*)`},
	{"sqli_stacked_query", "sqli", `;\s*(?:drop|delete|truncate|alter|insert|update)\s+`},
	{"sqli_time_delay", "sqli", `(?:sleep|benchmark|pg_sleep)\s*\(\s*\d+`},
	{"sqli_waitfor", "sqli", `waitfor\s+delay\s+'`},
	{"sqli_information_schema", "sqli", `information_schema`},
	{"sqli_load_file", "sqli", `load_file\s*\(`},
	{"sqli_into_outfile", "sqli", `into\s+(?:out|dump)file`},
	{"sqli_xp_cmdshell", "sqli", `xp_cmdshell`},
	{"sqli_concat", "sqli", `(?:group_)?concat\s*\(`},
	{"sqli_char_encoding", "sqli", `char\s*\(\s*\d+\s*(?:,\s*\d+\s*)+\)`},
	{"sqli_order_by_probe", "sqli", `order\s+by\s+\d+\s*(?:--|#)`},

	{"xss_event_handler", "xss", `\bon(?:load|error|mouseover|focus|click|submit)\s*=`},
	{"xss_iframe", "xss", `<\s*iframe`},
	{"xss_svg_handler", "xss", `<\s*svg[^>]*\bon\w+`},
	{"xss_img_src", "xss", `<\s*img[^>]+src\s*=`},
	{"xss_vbscript", "xss", `vbscript:`},
	{"xss_data_html", "xss", `data:text/html`},
	{"xss_css_expression", "xss", `expression\s*\(`},
	{"xss_document_write", "xss", `document\.(?:write|location)`},
	{"xss_window_location", "xss", `window\.location`},
	{"xss_encoded_script", "xss", `%3c\s*script`},

	{"traversal_backslash", "traversal", `\.\.\\`},
	{"traversal_encoded", "traversal", `%2e%2e(?:%2f|%5c|/)`},
	{"traversal_double_encoded", "traversal", `%252e%252e`},
	{"traversal_overlong_utf8", "traversal", `%c0%ae`},
	{"traversal_etc_shadow", "traversal", `etc/shadow`},
	{"traversal_windows_ini", "traversal", `(?:boot|win)\.ini`},
	{"traversal_null_byte", "traversal", `%00`},

	{"cmd_pipe_shell", "command", `\|\s*(?:sh|bash|zsh|nc)\b`},
	{"cmd_chained", "command", `(?:;|\|\||&&)\s*(?:cat|ls|id|whoami|uname|wget|curl)\b`},
	{"cmd_subshell", "command", `\$\([^)]*\)`},
	{"cmd_backtick", "command", "`[^`]+`"},
	{"cmd_shell_exec", "command", `shell_exec\s*\(`},
	{"cmd_passthru", "command", `passthru\s*\(`},
	{"cmd_popen", "command", `(?:popen|proc_open)\s*\(`},
	{"cmd_bin_shell", "command", `/bin/(?:ba)?sh`},
	{"cmd_netcat", "command", `\b(?:nc|ncat|netcat)\s+-[a-z]*[ev]`},
	{"cmd_powershell_encoded", "command", `-(?:enc|encodedcommand)\s+[a-z0-9+/=]{8,}`},
	{"cmd_invoke_expression", "command", `invoke-expression|\biex\s*\(`},

	{"ldap_filter_injection", "ldap", `\(\s*[|&!]\s*\(`},
	{"ldap_attr_wildcard", "ldap", `(?:uid|cn|mail|objectclass)=\*`},
	{"ldap_filter_break", "ldap", `\*\)\s*\(`},

	{"nosql_where", "nosql", `\$where`},
	{"nosql_query_operator", "nosql", `\[\$(?:ne|gt|lt|gte|lte|regex|in|nin|exists)\]`},
	{"nosql_json_operator", "nosql", `"\$(?:ne|gt|lt|regex|exists)"\s*:`},
	{"nosql_function", "nosql", `\$function`},

	{"xml_entity", "xml", `<!entity`},
	{"xml_inline_doctype", "xml", `<!doctype[^>]*\[`},
	{"xml_external_system", "xml", `system\s+["'](?:file|https?):`},
	{"xml_xinclude", "xml", `<xi:include`},
	{"xml_cdata", "xml", `<!\[cdata\[`},

	{"ssrf_cloud_metadata", "ssrf", `169\.254\.169\.254`},
	{"ssrf_scheme", "ssrf", `(?:gopher|dict|ldap|file)://`},
	{"lfi_php_wrapper", "inclusion", `php://(?:filter|input|expect)`},
	{"rfi_remote_include", "inclusion", `=\s*(?:https?|ftp)://[^&\s]*\.(?:txt|php)\?`},

	{"ssti_double_brace", "template", `\{\{[^}]*\}\}`},
	{"ssti_dollar_brace", "template", `\$\{[^}]*\}`},
	{"jndi_lookup", "template", `\$\{jndi:`},
	{"prototype_pollution", "template", `__proto__`},
	{"ognl_member_access", "template", `#_memberaccess`},
	{"spring_classloader", "template", `class\.module\.classloader`},

	{"scanner_sqlmap", "scanner", `sqlmap`},
	{"scanner_nikto", "scanner", `nikto`},
	{"scanner_nmap", "scanner", `nmap`},
	{"scanner_masscan", "scanner", `masscan`},
	{"scanner_acunetix", "scanner", `acunetix`},
	{"scanner_nessus", "scanner", `nessus`},
	{"scanner_dir_brute", "scanner", `dirbuster|gobuster|\bdirb\b`},
	{"scanner_wpscan", "scanner", `wpscan`},
	{"scanner_burp", "scanner", `burpcollaborator|burp\s?suite`},
	{"scanner_zgrab", "scanner", `zgrab`},
	{"scanner_nuclei", "scanner", `nuclei`},
	{"scanner_openvas", "scanner", `openvas|w3af|arachni`},
	{"scanner_havij", "scanner", `havij|pangolin`},

	{"mining_stratum", "mining", `stratum\+tcp://`},
	{"mining_xmrig", "mining", `xmrig|coinhive|cryptonight`},
	{"mining_cpuminer", "mining", `minerd|cpuminer`},
	{"botnet_family", "botnet", `\b(?:mirai|gafgyt|mozi)\b`},
	{"botnet_shellshock", "botnet", `\(\)\s*\{\s*:;\s*\}`},
	{"botnet_dropper", "botnet", `(?:wget|curl)\s+https?://\S+\s*(?:;|\|)\s*(?:sh|chmod)`},
	{"webshell_name", "botnet", `(?:c99|r57|b374k|wso)\.php`},

	{"php_object_injection", "deserialization", `o:\d+:"[a-z_\\]+":\d+:\{`},
	{"java_serialized_object", "deserialization", `ro0ab`},
	{"crlf_encoded", "header", `%0d%0a`},
	{"header_split", "header", `[\r\n](?:set-cookie|location)\s*:`},
}

var defaultHoneypots = []string{
	"/admin.php",
	"/wp-admin/",
	"/phpmyadmin/",
	"/.env",
	"/config.php",
	"/backup/",
	"/database/",
	"/logs/",
	"/.git",
	"/.svn",
	"/.hg/",
	"/.htaccess",
	"/.htpasswd",
	"/.aws/",
	"/.ssh/",
	"/.ds_store",
	"/wp-login.php",
	"/xmlrpc.php",
	"/administrator/",
	"/server-status",
	"/cgi-bin/",
	"/phpinfo.php",
	"/shell.php",
	"/web.config",
	"/actuator/",
	"/vendor/phpunit",
	"/solr/admin",
	"/id_rsa",
	"/dump.sql",
	"/backup.zip",
}

var defaultBotAgents = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"wget",
	"curl",
	"python-requests",
	"libwww-perl",
	"java/",
	"go-http-client",
	"scrapy",
	"beautifulsoup",
	"selenium",
	"phantomjs",
}
