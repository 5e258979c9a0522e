package htmloutput

// htmlTemplate is the embedded HTML template for the wellness report
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>AWS Cloud Wellness Report - {{.AccountID}}</title>
    <style>
        body,html{margin:0;padding:0}
        .top_bar{height:40px;background-color:#232F3F;color:#fff;text-align:center;line-height:40px;margin-bottom:20px}
        .attribute-table,.control-container,.control-table{font-family:Arial,Helvetica,sans-serif;border-collapse:collapse}
        .attribute-cell,.control-cell{box-sizing:border-box;vertical-align:middle}
        .active,.collapsible:hover{background-color:#555}
        .collapsible:after{content:'\002B';color:#fff;font-weight:700;float:right;margin-left:5px}
        .active:after{content:'\2212'}
        .attribute-table{display:table;width:800px;font-size:.8em;margin:0 auto;margin-bottom:20px}
        .attribute-row{display:table-row;height:25px}
        .attribute-cell{display:table-cell;border:1px solid #666;padding-left:10px}
        .attribute-label{background-color:#ccc;width:150px;font-weight:700}
        .collapsible{background-color:#777;color:#fff;cursor:pointer;padding:12px;width:100%;border:none;text-align:left;outline:0;font-size:14px;height:40px;margin-bottom:10px}
        .content{max-height:0;overflow:hidden;transition:max-height .2s ease-out}
        .control-container{display:block;width:800px;font-size:.8em;margin:30px auto 0}
        .control-table{display:table;width:798px;margin:0 auto;margin-bottom:10px}
        .control-row{display:table-row;height:25px}
        .control-cell{display:table-cell;border:1px solid #666;padding-left:10px}
        .control-label{background-color:#ccc;font-weight:700;width:150px}
        .control-value:hover{background-color:#d3d3d3}
        .result-failure{background-color:#ff6666}
        a.offender-link:after{content:"\2197"}
    </style>
</head>
<body>
    <div class="top_bar">AWS Cloud Wellness Report</div>
    <div class="attribute-table">
        <div class="attribute-row">
            <div class="attribute-cell attribute-label">Account:</div>
            <div class="attribute-cell attribute-value">{{.AccountID}}</div>
        </div>
        <div class="attribute-row">
            <div class="attribute-cell attribute-label">Report date:</div>
            <div class="attribute-cell attribute-value">{{.GeneratedAt}}</div>
        </div>
        <div class="attribute-row">
            <div class="attribute-cell attribute-label">JSON Results</div>
            <div class="attribute-cell attribute-value">{{.Annotation}}</div>
        </div>
    </div>
    <div class="control-container">
{{- range .Sections}}
        <button class="collapsible">{{.Label}} Controls ({{.Count}})</button>
        <div class="content">
{{- range .Controls}}
            <div class="control-table{{if .Failed}} result-failure{{end}}">
                <div class="control-row">
                    <div class="control-cell control-label">Control ID:</div>
                    <div class="control-cell control-value">{{.ID}}</div>
                </div>
                <div class="control-row">
                    <div class="control-cell control-label">Description:</div>
                    <div class="control-cell control-value">{{.Description}}</div>
                </div>
                <div class="control-row">
                    <div class="control-cell control-label">Result:</div>
                    <div class="control-cell control-value">{{.Result}}</div>
                </div>
{{- if .Failed}}
                <div class="control-row">
                    <div class="control-cell control-label">Fail Reason:</div>
                    <div class="control-cell control-value">{{.FailReason}}</div>
                </div>
{{- if .Offenders}}
                <div class="control-row">
                    <div class="control-cell control-label">Offenders:</div>
                    <div class="control-cell control-value">
{{- range .Offenders}}{{.Name}}{{if .Link}}&nbsp;<a class="offender-link" href="{{.Link}}" target="_blank"></a>{{end}}<br/>{{end -}}
                    </div>
                </div>
{{- end}}
{{- end}}
                <div class="control-row">
                    <div class="control-cell control-label">Scored Control:</div>
                    <div class="control-cell control-value">{{.Scored}}</div>
                </div>
            </div>
{{- end}}
        </div>
{{- end}}
    </div>
    <script>
    var i, coll = document.getElementsByClassName("collapsible");
    for (i = 0; i < coll.length; i++) coll[i].addEventListener("click", function() {
        this.classList.toggle("active");
        var l = this.nextElementSibling;
        l.style.maxHeight ? l.style.maxHeight = null : l.style.maxHeight = l.scrollHeight + "px"
    });
    </script>
</body>
</html>
`
