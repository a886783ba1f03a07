package razorpay

import "html/template"

type pageData struct {
	ScriptURL    string
	CallbackBase string
	KeyID        string
	AmountPaise  int64
	Currency     string
	OrderID      string
	Name         string
	Description  string
	Email        string
}

var pageTemplate = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} payment</title>
<script src="{{.ScriptURL}}"></script>
</head>
<body>
<p id="status">Opening secure checkout...</p>
<script>
(function () {
  var base = {{.CallbackBase}};
  function report(outcome, body) {
    return fetch(base + outcome, {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify(body)
    }).then(function () {
      document.getElementById("status").textContent = "You can close this tab now.";
    });
  }
  var rzp = new Razorpay({
    key: {{.KeyID}},
    amount: {{.AmountPaise}},
    currency: {{.Currency}},
    order_id: {{.OrderID}},
    name: {{.Name}},
    description: {{.Description}},
    prefill: {email: {{.Email}}},
    handler: function (resp) {
      report("success", {
        razorpay_payment_id: resp.razorpay_payment_id,
        razorpay_order_id: resp.razorpay_order_id,
        razorpay_signature: resp.razorpay_signature
      });
    },
    modal: {
      ondismiss: function () { report("dismiss", {}); }
    }
  });
  rzp.on("payment.failed", function (resp) {
    report("failure", {reason: (resp.error && resp.error.description) || "payment failed"});
  });
  rzp.open();
})();
</script>
</body>
</html>
`))
