package web

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>vidgen</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; background: #111; color: #eee; }
    textarea { width: 100%; min-height: 6rem; background: #1b1b1b; color: #eee; border: 1px solid #333; border-radius: 6px; padding: .5rem; }
    button { background: #ff5fd2; color: #000; border: 0; border-radius: 6px; padding: .5rem 1rem; cursor: pointer; }
    button:disabled { opacity: .4; cursor: default; }
    #image-preview-container, #video-output, #quota-error, .loader { display: none; }
    #img { max-width: 200px; border-radius: 6px; display: block; margin: .5rem 0; }
    #video { width: 100%; border-radius: 6px; }
    #quota-error { background: #5a1020; border: 1px solid #ff5f87; border-radius: 6px; padding: .75rem; margin: 1rem 0; }
    #status.loading { color: #aaa; }
    #status.success { color: #5fff87; }
    #status.error { color: #ff5f87; }
    .loader { width: 24px; height: 24px; border: 3px solid #333; border-top-color: #ff5fd2; border-radius: 50%; animation: spin 1s linear infinite; }
    @keyframes spin { to { transform: rotate(360deg); } }
    .row { margin: 1rem 0; }
  </style>
</head>
<body>
  <h1>vidgen</h1>
  <div class="row">
    <input id="file-input" type="file" accept="image/png,image/jpeg,image/webp" />
    <div id="image-preview-container">
      <img id="img" alt="selected image" />
      <button id="clear-image-button" type="button">Clear image</button>
    </div>
  </div>
  <div class="row">
    <textarea id="prompt-input" placeholder="Describe the video you want"></textarea>
  </div>
  <div class="row">
    <button id="generate-button" type="button">Generate</button>
  </div>
  <div class="loader"></div>
  <p id="status" class="default"></p>
  <div id="quota-error">
    You have exceeded the API quota. Check your plan and billing details, then try again later.
  </div>
  <div id="video-output">
    <video id="video" controls loop></video>
    <div class="row"><button id="download-button" type="button">Download</button></div>
  </div>
<script>
const $ = (s) => document.querySelector(s);
const upload = $('#file-input'), preview = $('#image-preview-container'), imgEl = $('#img');
const promptEl = $('#prompt-input'), generateButton = $('#generate-button'), statusEl = $('#status');
const loader = $('.loader'), videoOutput = $('#video-output'), video = $('#video');
const quotaErrorEl = $('#quota-error');
let videoID = null, timer = null;

function setLoading(on) {
  loader.style.display = on ? 'block' : 'none';
  generateButton.disabled = on;
  upload.disabled = on;
  promptEl.disabled = on;
}

function render(st) {
  setLoading(st.busy);
  statusEl.innerText = st.status.message || '';
  statusEl.className = st.status.kind || 'default';
  quotaErrorEl.style.display = st.quota ? 'block' : 'none';
  if (st.image) {
    imgEl.src = '/api/image?t=' + Date.now();
    preview.style.display = 'block';
  } else {
    imgEl.removeAttribute('src');
    preview.style.display = 'none';
  }
  if (st.video && !st.busy) {
    if (videoID !== st.video.id) {
      videoID = st.video.id;
      video.src = '/api/video?id=' + videoID;
      video.play();
    }
    videoOutput.style.display = 'block';
  } else {
    videoOutput.style.display = 'none';
  }
  if (st.busy && !timer) {
    timer = setInterval(refresh, 1000);
  } else if (!st.busy && timer) {
    clearInterval(timer);
    timer = null;
  }
}

async function refresh() {
  const res = await fetch('/api/status');
  render(await res.json());
}

async function call(method, url, body, headers) {
  const res = await fetch(url, {method, body, headers});
  const data = await res.json();
  if (!res.ok) {
    statusEl.innerText = 'Error: ' + data.error;
    statusEl.className = 'error';
    return null;
  }
  return data;
}

upload.addEventListener('change', async () => {
  const file = upload.files && upload.files[0];
  if (!file) {
    await call('DELETE', '/api/image');
  } else {
    const form = new FormData();
    form.append('image', file);
    await call('POST', '/api/image', form);
  }
  refresh();
});

$('#clear-image-button').addEventListener('click', async () => {
  upload.value = '';
  await call('DELETE', '/api/image');
  refresh();
});

$('#download-button').addEventListener('click', () => {
  const a = document.createElement('a');
  a.href = '/api/video?download=1';
  a.download = 'generated-video.mp4';
  a.style.display = 'none';
  document.body.appendChild(a);
  a.click();
  document.body.removeChild(a);
});

generateButton.addEventListener('click', async () => {
  setLoading(true);
  videoOutput.style.display = 'none';
  quotaErrorEl.style.display = 'none';
  video.removeAttribute('src');
  videoID = null;
  const ok = await call('POST', '/api/generate', JSON.stringify({prompt: promptEl.value}), {'Content-Type': 'application/json'});
  if (!ok) {
    setLoading(false);
    return;
  }
  refresh();
});

refresh();
</script>
</body>
</html>
`
